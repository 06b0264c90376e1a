//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/cwbudde/ultrasound/internal/audio"
	"github.com/cwbudde/ultrasound/internal/eq"
	"github.com/cwbudde/ultrasound/internal/library"
	"github.com/cwbudde/ultrasound/internal/playback"
)

var (
	engine *audio.Engine
	mapper *eq.Mapper
	lib    *library.Library
	driver *playback.Driver
	frames [][2]float64
	spec   []byte
	funcs  []js.Func
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		cfg := audio.DefaultConfig()
		if len(args) > 0 {
			cfg.SampleRate = args[0].Int()
		}
		if driver != nil {
			_ = driver.Close()
			mapper.Close()
			lib.Close()
			_ = engine.Close()
		}

		engine = audio.NewEngine(cfg, audio.WithDevice(audio.PullDevice()))
		m, err := eq.NewMapper(engine)
		if err != nil {
			return err.Error()
		}
		mapper = m
		lib = library.New()
		// The chain is built by the first play, which the page calls from a
		// user gesture.
		driver = playback.New(engine, lib.Playlist())
		return js.Null()
	}))

	api.Set("setBand", export(func(args []js.Value) any {
		if mapper == nil || len(args) < 2 {
			return js.Null()
		}
		return errValue(mapper.SetBandGain(args[0].Int(), args[1].Float()))
	}))

	api.Set("setInstrument", export(func(args []js.Value) any {
		if mapper == nil || len(args) < 2 {
			return js.Null()
		}
		return errValue(mapper.SetInstrumentGain(args[0].Int(), args[1].Float()))
	}))

	api.Set("applyPreset", export(func(args []js.Value) any {
		if mapper == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(mapper.ApplyPreset(args[0].String()))
	}))

	api.Set("presets", export(func([]js.Value) any {
		out := make([]any, 0, len(eq.Presets()))
		for _, p := range eq.Presets() {
			out = append(out, p.Name)
		}
		return out
	}))

	// render returns n interleaved stereo frames.
	api.Set("render", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := args[0].Int()
		if cap(frames) < n {
			frames = make([][2]float64, n)
		}
		frames = frames[:n]
		engine.Render(frames)
		arr := js.Global().Get("Float32Array").New(2 * n)
		for i, f := range frames {
			arr.SetIndex(2*i, f[0])
			arr.SetIndex(2*i+1, f[1])
		}
		return arr
	}))

	api.Set("byteFrequencyData", export(func([]js.Value) any {
		if engine == nil || engine.Analyser() == nil {
			return js.Global().Get("Uint8Array").New(0)
		}
		a := engine.Analyser()
		if len(spec) != a.FrequencyBinCount() {
			spec = make([]byte, a.FrequencyBinCount())
		}
		a.ByteFrequencyData(spec)
		arr := js.Global().Get("Uint8Array").New(len(spec))
		js.CopyBytesToJS(arr, spec)
		return arr
	}))

	api.Set("responseCurve", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		input := args[0]
		freqs := make([]float64, input.Length())
		for i := 0; i < input.Length(); i++ {
			freqs[i] = input.Index(i).Float()
		}
		resp := engine.ResponseCurveDB(freqs)
		arr := js.Global().Get("Float32Array").New(len(resp))
		for i := range resp {
			arr.SetIndex(i, resp[i])
		}
		return arr
	}))

	api.Set("snapshot", export(func([]js.Value) any {
		if mapper == nil {
			return js.Null()
		}
		return snapshotValue(mapper.Snapshot(), driver.Session())
	}))

	// loadBytes(name, mime, Uint8Array, callback) probes off the event loop
	// and reports the added track ids.
	api.Set("loadBytes", export(func(args []js.Value) any {
		if lib == nil || len(args) < 3 {
			return js.Null()
		}
		data := make([]byte, args[2].Length())
		js.CopyBytesToGo(data, args[2])
		f := library.File{Name: args[0].String(), MIME: args[1].String(), Size: int64(len(data)), Data: data}
		var cb js.Value
		if len(args) > 3 {
			cb = args[3]
		}

		go func() {
			added, err := lib.AddFiles(context.Background(), f)
			ids := make([]any, 0, len(added))
			for _, t := range added {
				ids = append(ids, t.ID)
			}
			if cb.Type() == js.TypeFunction {
				cb.Invoke(ids, errValue(err))
			}
		}()
		return js.Null()
	}))

	api.Set("play", export(func(args []js.Value) any {
		if driver == nil {
			return js.Null()
		}
		if len(args) > 0 {
			t, ok := lib.Playlist().Get(args[0].String())
			if !ok {
				return errValue(playback.ErrNoTrack)
			}
			return errValue(driver.PlayTrack(context.Background(), t))
		}
		return errValue(driver.Play(context.Background()))
	}))

	api.Set("togglePause", export(func([]js.Value) any {
		if driver == nil {
			return js.Null()
		}
		return errValue(driver.TogglePause(context.Background()))
	}))

	api.Set("next", export(func([]js.Value) any {
		if driver == nil {
			return js.Null()
		}
		return errValue(driver.Next(context.Background()))
	}))

	api.Set("previous", export(func([]js.Value) any {
		if driver == nil {
			return js.Null()
		}
		return errValue(driver.Previous(context.Background()))
	}))

	api.Set("setVolume", export(func(args []js.Value) any {
		if driver == nil || len(args) < 1 {
			return js.Null()
		}
		driver.SetVolume(args[0].Float())
		return js.Null()
	}))

	api.Set("notices", export(func([]js.Value) any {
		if lib == nil {
			return []any{}
		}
		out := []any{}
		for _, n := range lib.Notices().Active() {
			out = append(out, n.Message)
		}
		return out
	}))

	js.Global().Set("UltraSound", api)
	select {}
}

func snapshotValue(s eq.Snapshot, sess playback.Session) map[string]any {
	bands := make([]any, len(s.Bands))
	for i, b := range s.Bands {
		bands[i] = map[string]any{
			"frequency": b.FrequencyHz,
			"label":     audio.FrequencyLabel(b.FrequencyHz),
			"gain":      b.GainDB,
		}
	}
	instruments := make([]any, len(s.Instruments))
	for i, in := range s.Instruments {
		instruments[i] = map[string]any{
			"name":    in.Name,
			"color":   in.Color,
			"icon":    in.Icon,
			"percent": in.Percent,
			"gain":    in.GainDB,
		}
	}
	touched := make([]any, len(s.Touched))
	for i, id := range s.Touched {
		touched[i] = id
	}

	out := map[string]any{
		"bands":       bands,
		"instruments": instruments,
		"preset":      s.Preset,
		"touched":     touched,
		"boost":       s.Boost,
		"cut":         s.Cut,
		"center":      s.Center,
		"state":       sess.State.String(),
		"position":    sess.Position.Seconds(),
		"duration":    sess.Duration.Seconds(),
		"volume":      sess.Volume,
		"error":       errValue(sess.LastError),
	}
	if sess.Track != nil {
		out["track"] = sess.Track.Label()
	}
	return out
}

func errValue(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
