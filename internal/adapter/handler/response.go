package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// apiError is the error half of the response envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// envelope is the uniform JSON shape of every API response.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, envelope{Success: false, Error: &apiError{Code: code, Message: message}})
}

func respondCreated(c echo.Context, data any) error {
	return respond(c, http.StatusCreated, data)
}
