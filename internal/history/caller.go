package history

import (
	"runtime"

	"rodigy/internal/model"
)

// CallerAt describes the stack frame skip levels above its own caller.
// CallerAt(0) describes the function that called CallerAt.
func CallerAt(skip int) model.CallerInfo {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return model.UnknownCallerInfo()
	}
	info := model.CallerInfo{File: file, Line: line, Function: model.UnknownCaller}
	if fn := runtime.FuncForPC(pc); fn != nil {
		info.Function = fn.Name()
	}
	return info
}
