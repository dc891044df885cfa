package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pawbook/internal/database"
	"pawbook/internal/listing"
	"pawbook/internal/metrics"
	"pawbook/internal/models"
)

// clinicRequest is a clinic record plus optional inline assets. The []byte
// fields arrive base64-encoded per encoding/json.
type clinicRequest struct {
	models.Clinic
	Logo    []byte `json:"logo,omitempty"`
	License []byte `json:"license,omitempty"`
}

func (s *HTTPServer) handleClinics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts := listingOptions(r)
		clinics, err := s.clinics.ListClinics(r.Context(), opts)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"clinics": clinics})

	case http.MethodPost:
		var body clinicRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.clinics.CreateClinic(r.Context(), &body.Clinic, body.Logo, body.License); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, body.Clinic)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleClinic(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/clinics/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		clinic, err := s.clinics.GetClinic(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clinic)

	case http.MethodPut:
		var body clinicRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		body.Clinic.ID = id
		if err := s.clinics.ReplaceClinic(r.Context(), &body.Clinic, body.Logo, body.License); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, body.Clinic)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func listingOptions(r *http.Request) listing.Options {
	opts := listing.Options{
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		Service: strings.TrimSpace(r.URL.Query().Get("service")),
	}
	if strings.EqualFold(r.URL.Query().Get("sort"), "asc") {
		opts.Sort = listing.SortAscending
	}
	return opts
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var booking models.Booking
		if err := decodeJSON(r, &booking); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		booking.UserID = session.UserID
		if err := s.bookings.CreateBooking(r.Context(), &booking); err != nil {
			s.writeStoreError(w, err)
			return
		}
		metrics.IncBookingCreated()
		writeJSON(w, http.StatusCreated, booking)

	case http.MethodGet:
		if clinic := strings.TrimSpace(r.URL.Query().Get("clinic")); clinic != "" {
			if !session.IsManager {
				writeError(w, http.StatusForbidden, "manager access required")
				return
			}
			bookings, err := s.bookings.GetBookingsByClinic(r.Context(), clinic)
			if err != nil {
				s.writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
			return
		}

		bookings, err := s.bookings.GetBookingsByUser(r.Context(), session.UserID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBooking(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !session.IsManager && booking.UserID != session.UserID {
		writeError(w, http.StatusForbidden, "not your booking")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, booking)

	case action == "status" && r.Method == http.MethodPost:
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		// Non-managers may only cancel their own booking.
		if !session.IsManager && body.Status != models.StatusCancelled {
			writeError(w, http.StatusForbidden, "manager access required")
			return
		}
		if err := s.bookings.SetStatus(r.Context(), id, body.Status, session.UserID); err != nil {
			s.writeStoreError(w, err)
			return
		}
		metrics.IncStatusChange(body.Status)
		updated, err := s.bookings.GetBooking(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case action == "notes" && r.Method == http.MethodPost:
		var body struct {
			Notes string `json:"notes"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.bookings.UpdateNotes(r.Context(), id, body.Notes); err != nil {
			s.writeStoreError(w, err)
			return
		}
		updated, err := s.bookings.GetBooking(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user := &models.User{Name: body.Name, Email: body.Email, Phone: body.Phone}
	session, err := s.users.Register(r.Context(), user, body.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": session.Token,
		"user":  sanitizeUser(user),
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := s.users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": session.Token})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.users.Logout(r.Context(), session.Token); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.users.GetUser(r.Context(), session.UserID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sanitizeUser(user))

	case http.MethodPut:
		var user models.User
		if err := decodeJSON(r, &user); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		user.ID = session.UserID
		if err := s.users.ReplaceProfile(r.Context(), &user); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sanitizeUser(&user))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleFavorite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	clinicID := strings.TrimPrefix(r.URL.Path, "/api/v1/profile/favorites/")
	if clinicID == "" || strings.Contains(clinicID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	user, err := s.users.ToggleFavorite(r.Context(), session.UserID, clinicID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": user.Favorites})
}

// POST /api/v1/profile/pets/{index}/image with {"image": "<base64>"}
// handlePetCount resizes the pet list: POST /api/v1/profile/pets {"count": n}.
// Existing pets keep their slot, extra slots come back empty.
func (s *HTTPServer) handlePetCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Count < 0 {
		writeError(w, http.StatusBadRequest, "count must not be negative")
		return
	}

	user, err := s.users.SetPetCount(r.Context(), session.UserID, body.Count)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitizeUser(user))
}

func (s *HTTPServer) handlePetImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/profile/pets/")
	idxStr, action, _ := strings.Cut(rest, "/")
	if action != "image" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		writeError(w, http.StatusBadRequest, "invalid pet index")
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Image []byte `json:"image"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.UploadPetImage(r.Context(), session.UserID, idx, body.Image)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitizeUser(user))
}

func (s *HTTPServer) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := s.products.GetProducts(r.Context())
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})

	case http.MethodPost:
		var body struct {
			models.Product
			Image []byte `json:"image,omitempty"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.products.CreateProduct(r.Context(), &body.Product, body.Image); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, body.Product)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	product, err := s.products.GetProduct(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// handleStats is a manager-only overview: booking counts per status plus the
// registered user total.
func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if !session.IsManager {
		writeError(w, http.StatusForbidden, "manager access required")
		return
	}

	counts, err := s.bookings.CountByStatus(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	userCount, err := s.users.CountUsers(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": counts,
		"users":    userCount,
	})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	var body struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := time.Parse("2006-01-02", body.Start)
	if err != nil {
		// Default window around today
		start = time.Now().AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
	}
	end, err := time.Parse("2006-01-02", body.End)
	if err != nil {
		end = time.Now().AddDate(0, models.DefaultExportRangeMonthsAfter, 0)
	}

	path, err := s.exporter.ExportBookings(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": path})
}

func (s *HTTPServer) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrEmptyField), errors.Is(err, database.ErrInvalidField), errors.Is(err, database.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, database.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	default:
		s.logger.Error().Err(err).Msg("store error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func sanitizeUser(user *models.User) *models.User {
	clean := *user
	clean.Password = ""
	return &clean
}
