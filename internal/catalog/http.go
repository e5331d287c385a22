package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"TeluskoTrac/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	msgWelcome         = "Welcome to Telusko Trac"
	msgGetNotFound     = "Product Not Found!!"
	msgUpdated         = "Product Updated"
	msgUpdateNotFound  = "No Product Found"
	msgDeleted         = "Product Deleted Successfully!"
	msgDeleteNotFound  = "Product Not Found!"
	msgValidationError = "validation error"
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// NotFoundStatus is the status sent along with the not-found messages.
	// Zero means 200.
	NotFoundStatus int
}

// Routes registers the catalog endpoints. writeMW wraps only the mutating
// ones.
func (s *Server) Routes(writeMW ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/", s.greet)
	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)

	r.Group(func(wr chi.Router) {
		wr.Use(writeMW...)
		wr.Post("/products", s.create)
		wr.Put("/products/{id}", s.update)
		wr.Delete("/products", s.delete)
	})

	return r
}

func (s *Server) greet(w http.ResponseWriter, _ *http.Request) {
	kit.WriteMessage(w, http.StatusOK, msgWelcome)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get product failed", err, zap.Int("id", id))
		return
	}
	if !found {
		kit.WriteMessage(w, s.notFoundStatus(), msgGetNotFound)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := s.Store.Create(r.Context(), p)
	if err != nil {
		s.writeStoreError(w, r, "create product failed", err, zap.Int("id", p.ID))
		return
	}
	kit.WriteJSON(w, http.StatusOK, created)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	found, err := s.Store.Update(r.Context(), id, p)
	if err != nil {
		s.writeStoreError(w, r, "update product failed", err, zap.Int("id", id))
		return
	}
	if !found {
		kit.WriteMessage(w, s.notFoundStatus(), msgUpdateNotFound)
		return
	}
	kit.WriteMessage(w, http.StatusOK, msgUpdated)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeValidation(w, r, fieldError{Loc: "query.id", Msg: "valid integer required", Input: raw})
		return
	}

	found, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "delete product failed", err, zap.Int("id", id))
		return
	}
	if !found {
		kit.WriteMessage(w, s.notFoundStatus(), msgDeleteNotFound)
		return
	}
	kit.WriteMessage(w, http.StatusOK, msgDeleted)
}

func (s *Server) notFoundStatus() int {
	if s.NotFoundStatus == 0 {
		return http.StatusOK
	}
	return s.NotFoundStatus
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	if s.Log != nil {
		s.Log.Error(msg, append(fields, zap.Error(err))...)
	}
	if isTimeoutErr(err) {
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
		return
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

type fieldError struct {
	Loc   string `json:"loc"`
	Msg   string `json:"msg"`
	Input any    `json:"input,omitempty"`
}

func writeValidation(w http.ResponseWriter, r *http.Request, errs ...fieldError) {
	kit.WriteError(w, r, http.StatusUnprocessableEntity, msgValidationError, errs)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeValidation(w, r, fieldError{Loc: "path.id", Msg: "valid integer required", Input: raw})
		return 0, false
	}
	return id, true
}

// productPayload mirrors Product with pointers so absent and null fields can
// be told apart from zero values.
type productPayload struct {
	ID          *int     `json:"id"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (Product, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var in productPayload
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&in); err != nil {
		writeValidation(w, r, decodeFieldError(err))
		return Product{}, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeValidation(w, r, fieldError{Loc: "body", Msg: "extra data after json object"})
		return Product{}, false
	}

	var missing []fieldError
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"id", in.ID != nil},
		{"name", in.Name != nil},
		{"description", in.Description != nil},
		{"price", in.Price != nil},
		{"quantity", in.Quantity != nil},
	} {
		if !f.present {
			missing = append(missing, fieldError{Loc: "body." + f.name, Msg: "field required"})
		}
	}
	if len(missing) > 0 {
		writeValidation(w, r, missing...)
		return Product{}, false
	}

	return Product{
		ID:          *in.ID,
		Name:        *in.Name,
		Description: *in.Description,
		Price:       *in.Price,
		Quantity:    *in.Quantity,
	}, true
}

func decodeFieldError(err error) fieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fieldError{Loc: "body." + typeErr.Field, Msg: "expected " + typeErr.Type.String()}
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fieldError{Loc: "body", Msg: "body too large"}
	}
	return fieldError{Loc: "body", Msg: "invalid json: " + err.Error()}
}
