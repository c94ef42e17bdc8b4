package models

type LinkTarget string

const (
	TargetBlank LinkTarget = "_blank"
	TargetSelf  LinkTarget = "_self"
)

// Link — одна награда (ссылка), извлечённая со страницы источника.
// После извлечения запись не изменяется.
type Link struct {
	URL           string
	Title         string
	PublishedDate string // YYYY-MM-DD
	Summary       string
	Category      string
	Target        LinkTarget
}

type PromoCode struct {
	Code          string
	Description   string
	PublishedDate string // YYYY-MM-DD
	ExpiryDate    string
	SourceURL     string
	Category      string
}

type RecordType string

const (
	RecordTypeLink      RecordType = "link"
	RecordTypePromoCode RecordType = "promo_code"
)

// FingerprintKey — ключ персистентного набора отпечатков:
// пост WordPress, дата публикации, сайт назначения и тип записи.
type FingerprintKey struct {
	PostID  int64
	Date    string
	SiteKey string
	Type    RecordType
}
