package models

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type QuoteResponse struct {
	Language      string  `json:"language"`
	SizeBytes     int64   `json:"size_bytes"`
	PaymentAmount float64 `json:"payment_amount"`
}

type RateRequest struct {
	Rating int `json:"rating"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	UserType *string `json:"user_type"`
}

type LanguageRequest struct {
	Language string `json:"language"`
}

type FileURLResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type PremiumResponse struct {
	Job            *Job   `json:"job"`
	ReturnedFileID string `json:"returned_file_id,omitempty"`
}
