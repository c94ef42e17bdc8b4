package errors

import (
	"fmt"
)

type ErrUnknownSource struct {
	URL string
}

func (e *ErrUnknownSource) Error() string {
	return "не найден экстрактор для источника: " + e.URL
}

func (e *ErrUnknownSource) Is(target error) bool {
	_, ok := target.(*ErrUnknownSource)
	return ok
}

type ErrExtractionFailed struct {
	URL   string
	Cause error
}

func (e *ErrExtractionFailed) Error() string {
	return fmt.Sprintf("ошибка извлечения для источника %s: %v", e.URL, e.Cause)
}

func (e *ErrExtractionFailed) Unwrap() error {
	return e.Cause
}

func (e *ErrExtractionFailed) Is(target error) bool {
	_, ok := target.(*ErrExtractionFailed)
	return ok
}

type ErrMalformedDate struct {
	Value string
}

func (e *ErrMalformedDate) Error() string {
	return "неверный формат даты: " + e.Value
}

func (e *ErrMalformedDate) Is(target error) bool {
	_, ok := target.(*ErrMalformedDate)
	return ok
}

type ErrStorageUnavailable struct {
	Operation string
	Cause     error
}

func (e *ErrStorageUnavailable) Error() string {
	return fmt.Sprintf("хранилище недоступно при операции %s: %v", e.Operation, e.Cause)
}

func (e *ErrStorageUnavailable) Unwrap() error {
	return e.Cause
}

func (e *ErrStorageUnavailable) Is(target error) bool {
	_, ok := target.(*ErrStorageUnavailable)
	return ok
}

type ErrSourceNotFound struct {
	URL string
}

func (e *ErrSourceNotFound) Error() string {
	return "мониторинг для источника не найден: " + e.URL
}

func (e *ErrSourceNotFound) Is(target error) bool {
	_, ok := target.(*ErrSourceNotFound)
	return ok
}

type ErrLowConfidence struct {
	Confidence float64
	Threshold  float64
}

func (e *ErrLowConfidence) Error() string {
	return fmt.Sprintf("уверенность модели %.2f ниже порога %.2f", e.Confidence, e.Threshold)
}

type ErrEmptyPage struct {
	URL string
}

func (e *ErrEmptyPage) Error() string {
	return "источник вернул пустую страницу: " + e.URL
}

func (e *ErrEmptyPage) Is(target error) bool {
	_, ok := target.(*ErrEmptyPage)
	return ok
}

type ErrUnknownDBAccessType struct {
	AccessType string
}

func (e *ErrUnknownDBAccessType) Error() string {
	return fmt.Sprintf("неизвестный тип доступа к базе данных: %s", e.AccessType)
}

type ErrBuildSQLQuery struct {
	Operation string
	Cause     error
}

func (e *ErrBuildSQLQuery) Error() string {
	return fmt.Sprintf("ошибка при построении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrBuildSQLQuery) Unwrap() error {
	return e.Cause
}

type ErrSQLExecution struct {
	Operation string
	Cause     error
}

func (e *ErrSQLExecution) Error() string {
	return fmt.Sprintf("ошибка при выполнении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrSQLExecution) Unwrap() error {
	return e.Cause
}

type ErrSQLScan struct {
	Entity string
	Cause  error
}

func (e *ErrSQLScan) Error() string {
	return fmt.Sprintf("ошибка при сканировании %s: %v", e.Entity, e.Cause)
}

func (e *ErrSQLScan) Unwrap() error {
	return e.Cause
}

type ErrAlertNotFound struct {
	AlertID int64
}

func (e *ErrAlertNotFound) Error() string {
	return fmt.Sprintf("алерт с ID %d не найден", e.AlertID)
}

func (e *ErrAlertNotFound) Is(target error) bool {
	_, ok := target.(*ErrAlertNotFound)
	return ok
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}
