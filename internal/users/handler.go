package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jonwraymond/calltrace/intercept"
)

// DeletedMessage is the body returned by a successful delete.
const DeletedMessage = "User deleted successfully"

// Type is the metadata shared by every handler operation.
var Type = intercept.TypeMeta{
	Name:   "UserHandler",
	Config: intercept.Configure(intercept.DefaultCallConfig()),
}

var (
	idParam   = intercept.Param{Name: "id", Source: intercept.SourcePath}
	bodyParam = intercept.Param{Name: "user", Source: intercept.SourceBody}
)

// Operation metadata, one per route.
var (
	OpCreate = intercept.OperationMeta{
		Name:   "Create",
		Params: []intercept.Param{bodyParam},
		Config: intercept.Configure(intercept.CallConfig{
			Description:      "Create new user",
			LogParams:        true,
			LogExecutionTime: true,
		}),
	}
	OpGet = intercept.OperationMeta{
		Name:   "Get",
		Params: []intercept.Param{idParam},
		Config: describe("Get user by ID"),
	}
	OpList = intercept.OperationMeta{
		Name: "List",
		Config: intercept.Configure(intercept.CallConfig{
			Description:      "Get all users",
			LogParams:        true,
			LogExecutionTime: true,
		}),
	}
	OpUpdate = intercept.OperationMeta{
		Name:   "Update",
		Params: []intercept.Param{idParam, bodyParam},
		Config: describe("Update existing user"),
	}
	OpDelete = intercept.OperationMeta{
		Name:   "Delete",
		Params: []intercept.Param{idParam},
		Config: describe("Delete user"),
	}
)

func describe(description string) *intercept.CallConfig {
	c := intercept.DefaultCallConfig()
	c.Description = description
	return &c
}

// Handler serves /api/users. Every operation runs through the interceptor.
type Handler struct {
	create func(context.Context, User) (intercept.Response[User], error)
	get    func(context.Context, int64) (intercept.Response[User], error)
	list   func(context.Context) (intercept.Response[[]User], error)
	update func(context.Context, int64, User) (intercept.Response[User], error)
	remove func(context.Context, int64) (intercept.Response[string], error)
}

// NewHandler creates a Handler over svc.
func NewHandler(svc *Service, i *intercept.Interceptor) *Handler {
	return &Handler{
		create: intercept.Wrap1(i, Type, OpCreate, func(ctx context.Context, u User) (intercept.Response[User], error) {
			created, err := svc.Create(ctx, u)
			return intercept.Created(created), err
		}),
		get: intercept.Wrap1(i, Type, OpGet, func(ctx context.Context, id int64) (intercept.Response[User], error) {
			u, err := svc.Get(ctx, id)
			return intercept.OK(u), err
		}),
		list: intercept.Wrap0(i, Type, OpList, func(ctx context.Context) (intercept.Response[[]User], error) {
			list, err := svc.List(ctx)
			return intercept.OK(list), err
		}),
		update: intercept.Wrap2(i, Type, OpUpdate, func(ctx context.Context, id int64, u User) (intercept.Response[User], error) {
			updated, err := svc.Update(ctx, id, u)
			return intercept.OK(updated), err
		}),
		remove: intercept.Wrap1(i, Type, OpDelete, func(ctx context.Context, id int64) (intercept.Response[string], error) {
			if err := svc.Delete(ctx, id); err != nil {
				return intercept.Response[string]{}, err
			}
			return intercept.OK(DeletedMessage), nil
		}),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.handleCreate)
	mux.HandleFunc("GET /api/users", h.handleList)
	mux.HandleFunc("GET /api/users/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/users/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/users/{id}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var u User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.create(r.Context(), u)
	write(w, resp, err)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	resp, err := h.list(r.Context())
	write(w, resp, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.get(r.Context(), id)
	write(w, resp, err)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var u User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.update(r.Context(), id, u)
	write(w, resp, err)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.remove(r.Context(), id)
	write(w, resp, err)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func write[T any](w http.ResponseWriter, resp intercept.Response[T], err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, resp.Status, resp.Value)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
