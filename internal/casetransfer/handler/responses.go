package handler

import "casetransfer/internal/casetransfer/models"

// CallbackResponse returns the (possibly mutated) case and the messages to
// show the caseworker. An empty errors list means the transfer went through.
type CallbackResponse struct {
	Data   *models.Case `json:"data"`
	Errors []string     `json:"errors"`
}

func newCallbackResponse(c *models.Case, errs []string) CallbackResponse {
	if errs == nil {
		errs = []string{}
	}
	return CallbackResponse{Data: c, Errors: errs}
}

type OfficesResponse struct {
	Current string   `json:"current"`
	Scope   string   `json:"scope"`
	Offices []string `json:"offices"`
}
