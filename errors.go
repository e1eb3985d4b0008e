package main

import (
	"encoding/json"
	"net/http"
)

const (
	codeTokenMissing       = "TOKEN_MISSING"
	codeTokenInvalid       = "TOKEN_INVALID"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeForbidden          = "FORBIDDEN"
	codeNotFound           = "NOT_FOUND"
	codeInvalidRequest     = "INVALID_REQUEST"
	codeUserExists         = "USER_EXISTS"
	codeInternal           = "INTERNAL_ERROR"
	codeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
)

const (
	msgTokenMissing   = "Token is missing!"
	msgTokenInvalid   = "Token is invalid!"
	msgCouldNotVerify = "Could not verify"
	msgForbidden      = "Cannot perform that function!"
	msgNoUser         = "No user found!"
	msgNoPet          = "No Pet found"
	msgUserExists     = "User already exists!"
	msgInvalidBody    = "Invalid request body"
	msgInternal       = "Internal server error"
)

// APIError represents a structured API error response
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeError writes a structured error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	})
}

// writeMessage writes the {"message": ...} body every mutation returns
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
