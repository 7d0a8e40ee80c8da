// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Logging

WithLogging wraps handlers with request/completion logging:

	mux.HandleFunc("POST /polls", middleware.WithLogging(handler.CreatePoll))

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "Question is required.")
	middleware.ParseJSONBody(r, &req)

Error responses carry a single human-readable message: {"error": "..."}.
Internal store errors are logged, never leaked to clients.

# CORS

The CORS middleware reflects the request origin and allows credentials so
the frontend can send the voter cookie cross-origin.
*/
package middleware
