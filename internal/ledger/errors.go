package ledger

import "errors"

var (
	ErrNotFound     = errors.New("kayıt bulunamadı")
	ErrInvalidInput = errors.New("geçersiz girdi")
)
