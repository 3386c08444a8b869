package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

// maxUploadBytes caps document uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// credentialsRequest is the register and login request body.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public view of an account.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// chatResponse is the public view of a chat.
type chatResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// messageResponse is the public view of a message.
type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func toChatResponse(chat domain.Chat) chatResponse {
	return chatResponse{
		ID:        chat.ID,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
}

func toMessageResponse(msg domain.Message) messageResponse {
	return messageResponse{
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput))
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput))
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	chats, err := s.chats.ListChats(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]chatResponse, len(chats))
	for i, chat := range chats {
		out[i] = toChatResponse(chat)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	chat, err := s.chats.CreateChat(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toChatResponse(*chat))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	chatID := r.PathValue("chatID")

	messages, err := s.chats.ListMessages(r.Context(), user.ID, chatID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]messageResponse, len(messages))
	for i, msg := range messages {
		out[i] = toMessageResponse(msg)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: missing file field", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("reading upload: %w", err))
		return
	}

	result, err := s.knowledge.IngestFile(r.Context(), user.ID, header.Filename, uploadMIMEType(header), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"filename":    header.Filename,
		"chunk_count": result.ChunkCount,
	})
}

// uploadMIMEType resolves the upload's MIME type from the part header,
// falling back to the filename extension.
func uploadMIMEType(header *multipart.FileHeader) string {
	if mimeType := header.Header.Get("Content-Type"); mimeType != "" && mimeType != "application/octet-stream" {
		return mimeType
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".text":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
