package world

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrNotLoaded чанк отсутствует или ещё не сгенерирован. Восстановимая ошибка.
	ErrNotLoaded = errors.New("chunk not loaded")
	// ErrInvalidCoordinate локальная координата вне чанка. Ошибка вызывающего кода.
	ErrInvalidCoordinate = errors.New("invalid local coordinate")
	// ErrGenerationFailed стадия генерации завершилась ошибкой, чанк будет повторно обработан
	ErrGenerationFailed = errors.New("chunk generation failed")
	// ErrDisplaceFailed в окне поиска нет свободного пикселя
	ErrDisplaceFailed = errors.New("no free cell to displace into")
)

// ErrUnknownLoader загрузчик с таким ID не зарегистрирован
var ErrUnknownLoader = errors.New("unknown loader")

// TickPanicError паника в рабочей горутине тика, перехваченная и превращённая в ошибку
type TickPanicError struct {
	Component string
	Where     string
	Value     any
	Stack     []byte
}

func (e *TickPanicError) Error() string {
	return fmt.Sprintf("panic в %s (%s): %v", e.Component, e.Where, e.Value)
}

// RecoverTickPanic перехватывает панику и записывает её в err.
// Вызывается через defer в рабочих горутинах.
func RecoverTickPanic(component, where string, err *error) {
	if r := recover(); r != nil {
		*err = &TickPanicError{Component: component, Where: where, Value: r, Stack: debug.Stack()}
	}
}
