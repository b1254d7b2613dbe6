package listing

import "github.com/gofiber/fiber/v3"

// ErrorKind разделяет ошибки процесса отправки объявления
type ErrorKind int

const (
	// KindValidation — черновик не прошел локальные проверки
	KindValidation ErrorKind = iota + 1
	// KindUpload — хотя бы одна загрузка изображения не удалась
	KindUpload
	// KindPersist — запись в базу не удалась после успешных загрузок
	KindPersist
	// KindPermission — объявление принадлежит другому пользователю
	KindPermission
	// KindNotFound — объявление не существует
	KindNotFound
)

// FlowError — ошибка процесса отправки с пользовательским сообщением.
// Message безопасно показывать пользователю, Err хранит причину для логов.
type FlowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func validationError(msg string) *FlowError {
	return &FlowError{Kind: KindValidation, Message: msg}
}

// StatusFor возвращает HTTP-статус для ошибки процесса
func StatusFor(e *FlowError) int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindPermission:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUpload:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
