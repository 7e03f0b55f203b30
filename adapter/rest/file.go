package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/RichardKnop/ragchat"
)

type uploadResponse struct {
	Message string `json:"message"`
}

// Upload a file and add documents extracted from it to the knowledge base
// (POST /upload)
func (a *Adapter) UploadFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	// Limit the size of the request body to prevent large uploads. This will return
	// io.MaxBytesError if the request body exceeds the limit while being read.
	r.Body = http.MaxBytesReader(w, r.Body, ragchat.MaxFileSize)

	// Limit memory usage to 20MB, anything over this limit will be stored in a temporary file.
	r.ParseMultipartForm(ragchat.MaxFileSize)

	principal := principalFromRequest(r.FormValue("user_id"))

	file, header, err := r.FormFile("file")
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("No file uploaded"))
		return
	}
	defer file.Close()

	aFile, err := a.ragChat.UploadFile(ctx, principal, file, header)
	if err != nil {
		switch {
		case errors.Is(err, ragchat.ErrEmptyFileName):
			renderJSONError(w, http.StatusBadRequest, err)
		case errors.Is(err, ragchat.ErrFileTypeNotAllowed):
			renderJSONError(w, http.StatusBadRequest, err)
		default:
			a.logger.Sugar().Errorf("upload failed: %v", err)
			renderJSONError(w, http.StatusInternalServerError, err)
		}
		return
	}

	renderJSON(w, http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("%s uploaded and indexed successfully.", aFile.FileName),
	})
}
