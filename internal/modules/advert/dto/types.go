package dto

import "time"

type SubmitInput struct {
	BusinessName string
	Email        string
	Website      string
	ImageName    string
	Image        []byte
}

type SubmitOutput struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url"`
}

type WebhookInput struct {
	Payload   []byte
	Signature string
}

type WebhookOutput struct {
	AdvertID string `json:"advert_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Ignored  bool   `json:"ignored"`
}

type AdvertOutput struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	Email        string    `json:"email"`
	Website      string    `json:"website,omitempty"`
	ImageKey     string    `json:"image_key"`
	AmountCents  int64     `json:"amount_cents"`
	Status       string    `json:"status"`
	CheckoutID   string    `json:"checkout_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SetStatusInput struct {
	ID     string
	Status string
}
