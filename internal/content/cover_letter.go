package content

import "encoding/json"

type CoverLetter struct {
	Sender     Contact   `json:"sender"`
	Recipient  Recipient `json:"recipient"`
	Date       string    `json:"date,omitempty"`
	JobTitle   string    `json:"jobTitle,omitempty"`
	Greeting   string    `json:"greeting,omitempty"`
	Paragraphs []string  `json:"paragraphs,omitempty"`
	Closing    string    `json:"closing,omitempty"`
	Signature  string    `json:"signature,omitempty"`
	Settings   Settings  `json:"settings"`
}

type Contact struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

type Recipient struct {
	Name    string `json:"name,omitempty"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
}

// DecodeCoverLetter parses cover-letter content, returning the zero value for malformed input.
func DecodeCoverLetter(raw json.RawMessage) CoverLetter {
	var c CoverLetter
	_ = json.Unmarshal(raw, &c)
	return c
}
