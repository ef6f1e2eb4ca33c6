package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kislikjeka/userdir/internal/platform/user"
)

// UserServiceInterface defines the directory operations the handler needs
type UserServiceInterface interface {
	List(ctx context.Context, limit int) ([]*user.User, error)
	Get(ctx context.Context, username string) (*user.User, error)
	Create(ctx context.Context, u *user.User) (string, error)
	Replace(ctx context.Context, u *user.User) (string, error)
	Merge(ctx context.Context, p *user.Patch) (string, error)
	Delete(ctx context.Context, username string) (string, error)
}

// UserHandler handles user directory HTTP requests
type UserHandler struct {
	userService UserServiceInterface
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UserRequest is the body of POST and PUT /users
type UserRequest struct {
	Username string  `json:"username"`
	Age      *int    `json:"age"`
	Location *string `json:"location"`
}

// UserUpdateRequest is the body of PATCH /users. Only supplied fields change.
type UserUpdateRequest struct {
	Username string           `json:"username"`
	Age      optional[int]    `json:"age"`
	Location optional[string] `json:"location"`
}

// UserResponse represents a user
type UserResponse struct {
	Username string  `json:"username"`
	Age      *int    `json:"age"`
	Location *string `json:"location"`
}

// optional records whether a JSON field was present, including explicit null
type optional[T any] struct {
	set   bool
	value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

func (o optional[T]) field() user.Field[T] {
	return user.Field[T]{Present: o.set, Value: o.value}
}

// ListUsers handles GET /users?limit=N
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := user.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := parseLimit(raw)
		if err != nil {
			respondWithValidation(w, singleFieldError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	users, err := h.userService.List(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	respondWithJSON(w, http.StatusOK, responses)
}

// GetUser handles GET /users/{username}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	u, err := h.userService.Get(r.Context(), username)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(u))
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.userService.Create(r.Context(), req.toUser())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, MessageResponse{Message: msg})
}

// ReplaceUser handles PUT /users
func (h *UserHandler) ReplaceUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.userService.Replace(r.Context(), req.toUser())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// UpdateUser handles PATCH /users
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := &user.Patch{
		Username: req.Username,
		Age:      req.Age.field(),
		Location: req.Location.field(),
	}

	msg, err := h.userService.Merge(r.Context(), patch)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// DeleteUser handles DELETE /users?username=X
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondWithValidation(w, singleFieldError("username", "field required"))
		return
	}

	msg, err := h.userService.Delete(r.Context(), username)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// parseLimit accepts any integer. Values beyond the int range saturate,
// so an oversized limit lists everything and an undersized one lists nothing.
func parseLimit(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(raw, "-") {
			return 0, nil
		}
		return math.MaxInt, nil
	}
	return 0, err
}

// decodeBody decodes a single JSON value. Type mismatches become 422 with the
// offending field; anything else unreadable, including trailing data, is a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		if dec.Decode(&struct{}{}) != io.EOF {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return false
		}
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		respondWithValidation(w, singleFieldError(field, "must be a "+jsonTypeName(typeErr)))
		return false
	}

	respondWithError(w, http.StatusBadRequest, "invalid request body")
	return false
}

func jsonTypeName(typeErr *json.UnmarshalTypeError) string {
	switch typeErr.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "valid integer"
	case reflect.String:
		return "string"
	default:
		return typeErr.Type.String()
	}
}

func singleFieldError(field, message string) *user.ValidationError {
	verr := &user.ValidationError{}
	verr.Add(field, message)
	return verr
}

func (req *UserRequest) toUser() *user.User {
	return &user.User{
		Username: req.Username,
		Age:      req.Age,
		Location: req.Location,
	}
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		Username: u.Username,
		Age:      u.Age,
		Location: u.Location,
	}
}
