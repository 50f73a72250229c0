//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/leaf/leaf/backend-go/internal/canvas"
	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/engine"
	"github.com/leaf/leaf/backend-go/internal/export"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

var (
	session  *engine.Session
	onChange js.Value
)

func main() {
	newSession(1200, 800)

	// Create the engine API object
	leafEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	leafEngine.Set("init", js.FuncOf(initCanvas))
	leafEngine.Set("loadScene", js.FuncOf(loadScene))
	leafEngine.Set("loadSampleScene", js.FuncOf(loadSampleScene))
	leafEngine.Set("clearCanvas", js.FuncOf(clearCanvas))
	leafEngine.Set("createObject", js.FuncOf(createObject))
	leafEngine.Set("addObject", js.FuncOf(addObject))
	leafEngine.Set("updateObject", js.FuncOf(updateObject))
	leafEngine.Set("deleteObject", js.FuncOf(deleteObject))
	leafEngine.Set("setImageSize", js.FuncOf(setImageSize))
	leafEngine.Set("moveUp", js.FuncOf(moveUp))
	leafEngine.Set("moveDown", js.FuncOf(moveDown))
	leafEngine.Set("dragStart", js.FuncOf(dragStart))
	leafEngine.Set("dragMove", js.FuncOf(dragMove))
	leafEngine.Set("dragEnd", js.FuncOf(dragEnd))
	leafEngine.Set("confirmOffer", js.FuncOf(confirmOffer))
	leafEngine.Set("dismissOffer", js.FuncOf(dismissOffer))
	leafEngine.Set("layerDragStart", js.FuncOf(layerDragStart))
	leafEngine.Set("layerDragOver", js.FuncOf(layerDragOver))
	leafEngine.Set("layerDragLeave", js.FuncOf(layerDragLeave))
	leafEngine.Set("layerDrop", js.FuncOf(layerDrop))
	leafEngine.Set("layerCancel", js.FuncOf(layerCancel))
	leafEngine.Set("alignSelf", js.FuncOf(alignSelf))
	leafEngine.Set("onChange", js.FuncOf(setOnChange))

	// --- Queries (frontend ← backend) ---
	leafEngine.Set("getForest", js.FuncOf(getForest))
	leafEngine.Set("getOffer", js.FuncOf(getOffer))
	leafEngine.Set("getScene", js.FuncOf(getScene))
	leafEngine.Set("getRevision", js.FuncOf(getRevision))
	leafEngine.Set("getLayerState", js.FuncOf(getLayerState))
	leafEngine.Set("exportHTML", js.FuncOf(exportHTML))

	// Register on global scope
	js.Global().Set("leafEngine", leafEngine)

	// Signal that WASM is ready
	js.Global().Set("leafWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func newSession(width, height float64) {
	if session != nil {
		session.Close()
	}
	session = engine.NewSession(canvas.NewMemory(width, height), engine.Options{
		OnEvent: func(ev engine.Event) {
			if onChange.Type() == js.TypeFunction {
				onChange.Invoke(string(ev.Type), float64(ev.Revision))
			}
		},
	})
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func result(err error) interface{} {
	if err != nil {
		return fail(err.Error())
	}
	return ok()
}

// jsonResult returns v encoded as a JSON string.
func jsonResult(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}

// --- Command Handlers ---

func initCanvas(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("missing width/height")
	}
	newSession(args[0].Float(), args[1].Float())
	return ok()
}

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing scene JSON")
	}
	var scene document.Scene
	if err := json.Unmarshal([]byte(args[0].String()), &scene); err != nil {
		return fail(err.Error())
	}
	newSession(scene.Width, scene.Height)
	return result(session.LoadScene(&scene))
}

func loadSampleScene(this js.Value, args []js.Value) interface{} {
	scene := session.Scene("", "")
	return result(session.LoadScene(document.NewSampleScene(scene.Width, scene.Height)))
}

func clearCanvas(this js.Value, args []js.Value) interface{} {
	session.ClearCanvas()
	return ok()
}

func addObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing object JSON")
	}
	var obj document.Object
	if err := json.Unmarshal([]byte(args[0].String()), &obj); err != nil {
		return fail(err.Error())
	}
	if err := session.AddObject(&obj); err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": obj.ID})
}

// createObject adds an object of the given kind with default geometry.
func createObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing kind")
	}
	obj, err := document.NewObject(document.Kind(args[0].String()))
	if err != nil {
		return fail(err.Error())
	}
	if err := session.AddObject(obj); err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": obj.ID})
}

func updateObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("missing id/patch JSON")
	}
	var patch document.ObjectPatch
	if err := json.Unmarshal([]byte(args[1].String()), &patch); err != nil {
		return fail(err.Error())
	}
	return result(session.UpdateObject(args[0].String(), &patch))
}

func deleteObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing id")
	}
	return result(session.DeleteObject(args[0].String()))
}

func setImageSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return fail("missing id/width/height")
	}
	size := document.Size{Width: args[1].Float(), Height: args[2].Float()}
	return result(session.SetImageSize(args[0].String(), size))
}

func moveUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing id")
	}
	return js.ValueOf(session.MoveUp(args[0].String()))
}

func moveDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing id")
	}
	return js.ValueOf(session.MoveDown(args[0].String()))
}

func dragStart(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing id")
	}
	return result(session.DragStart(args[0].String()))
}

func dragMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return fail("missing id/left/top")
	}
	return result(session.DragMove(args[0].String(), args[1].Float(), args[2].Float()))
}

// dragEnd returns the offer JSON, or null when no container was hit.
func dragEnd(this js.Value, args []js.Value) interface{} {
	offer, err := session.DragEnd()
	if err != nil {
		return fail(err.Error())
	}
	if offer == nil {
		return js.Null()
	}
	return jsonResult(offer)
}

func confirmOffer(this js.Value, args []js.Value) interface{} {
	return result(session.ConfirmOffer())
}

func dismissOffer(this js.Value, args []js.Value) interface{} {
	session.DismissOffer()
	return ok()
}

func layerDragStart(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing id")
	}
	session.LayerDragStart(args[0].String())
	return ok()
}

func layerDragOver(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing id")
	}
	session.LayerDragOver(args[0].String())
	return ok()
}

func layerDragLeave(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing id")
	}
	session.LayerDragLeave(args[0].String())
	return ok()
}

func layerDrop(this js.Value, args []js.Value) interface{} {
	return jsonResult(session.LayerDrop())
}

func layerCancel(this js.Value, args []js.Value) interface{} {
	session.LayerCancel()
	return ok()
}

func alignSelf(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("missing position/id")
	}
	return result(session.AlignSelf(engine.Position(args[0].String()), args[1].String()))
}

func setOnChange(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return fail("missing callback")
	}
	onChange = args[0]
	return ok()
}

// --- Query Handlers ---

func getForest(this js.Value, args []js.Value) interface{} {
	mode := tree.ModeCombined
	if len(args) > 0 {
		m, err := tree.ParseMode(args[0].String())
		if err != nil {
			return fail(err.Error())
		}
		mode = m
	}
	return jsonResult(session.Forest(mode))
}

func getOffer(this js.Value, args []js.Value) interface{} {
	offer := session.Offer()
	if offer == nil {
		return js.Null()
	}
	return jsonResult(offer)
}

func getScene(this js.Value, args []js.Value) interface{} {
	return jsonResult(session.Scene("", ""))
}

func getRevision(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(float64(session.Revision()))
}

func getLayerState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.LayerState().String())
}

// exportHTML takes DocumentOptions JSON and returns the page markup.
func exportHTML(this js.Value, args []js.Value) interface{} {
	var opts export.DocumentOptions
	if len(args) > 0 {
		if err := json.Unmarshal([]byte(args[0].String()), &opts); err != nil {
			return fail(err.Error())
		}
	}
	if opts.Width == 0 {
		opts.Width = session.Scene("", "").Width
	}
	if opts.Height == 0 {
		opts.Height = export.DefaultReferenceHeight
	}
	html, err := session.Export(opts, export.DefaultReferenceHeight)
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(html)
}
