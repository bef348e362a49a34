package apperrors

import "errors"

// Классификация ошибок сервиса. Обработчики HTTP сопоставляют их
// со статус-кодами через errors.Is.
var (
	// ErrInvalidInput некорректные входные данные (нет файла, не image/*, неверные параметры)
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetch удаленное изображение недоступно (сетевая ошибка или не-2xx статус)
	ErrFetch = errors.New("fetch failed")

	// ErrDecode изображение не читается или модель вернула неизвестный класс
	ErrDecode = errors.New("decode failed")

	// ErrPersistence ошибка в цепочке detect -> persist, транзакция откачена
	ErrPersistence = errors.New("persistence failed")

	// ErrNotFound запись с указанным ID не существует
	ErrNotFound = errors.New("not found")
)
