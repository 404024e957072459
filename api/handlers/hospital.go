package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/chetak-health/chetak-api/api"
	"github.com/chetak-health/chetak-api/databases"
	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/mailer"
	"github.com/chetak-health/chetak-api/models"
)

const (
	minPasswordLength = 6
	welcomeTimeout    = 15 * time.Second

	msgAuthenticate  = "Please authenticate."
	msgInvalidLogin  = "Invalid login credentials"
	msgInvalidUpdate = "Invalid updates!"
)

var allowedProfileUpdates = map[string]bool{
	"hospitalName":      true,
	"name":              true,
	"phone":             true,
	"address":           true,
	"facilities":        true,
	"specialties":       true,
	"emergencyCapacity": true,
	"location":          true,
	"hasICU":            true,
	"specialists":       true,
	"equipment":         true,
}

// Hospital exported for testing purposes
type Hospital struct {
	DB     databases.HospitalDatabase
	Auth   *api.Auth
	Mailer mailer.Mailer
}

type registerRequest struct {
	HospitalName      string                    `json:"hospitalName"`
	Name              string                    `json:"name"`
	Email             string                    `json:"email"`
	Password          string                    `json:"password"`
	Phone             string                    `json:"phone"`
	Address           string                    `json:"address"`
	LicenseNumber     string                    `json:"licenseNumber"`
	Location          *geo.Point                `json:"location"`
	HasICU            bool                      `json:"hasICU"`
	Specialists       []string                  `json:"specialists"`
	Equipment         []string                  `json:"equipment"`
	Facilities        []models.Facility         `json:"facilities"`
	Specialties       []models.Specialty        `json:"specialties"`
	EmergencyCapacity *models.EmergencyCapacity `json:"emergencyCapacity"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Hospital models.Hospital `json:"hospital"`
	Token    string          `json:"token"`
}

// RegisterHandler creates a hospital account and returns it with a token
func (h Hospital) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hospital, err := req.toHospital()
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	hospital.Password = string(hash)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	id, err := h.DB.InsertOne(ctx, hospital)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			api.WriteError(w, http.StatusConflict, "a hospital with this email or license number already exists")
			return
		}
		zap.S().Errorw("failed to insert hospital", "email", hospital.Email, "error", err)
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if oid, ok := id.(primitive.ObjectID); ok {
		hospital.ID = oid
	}

	token, err := h.Auth.IssueToken(hospital)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.sendWelcome(hospital)

	zap.S().Infow("hospital registered", "id", hospital.ID.Hex(), "name", hospital.Name)
	api.WriteJSON(w, http.StatusCreated, authResponse{Hospital: hospital, Token: token})
}

// LoginHandler verifies credentials and returns the hospital with a fresh token
func (h Hospital) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, msgInvalidLogin)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hospital, err := h.DB.FindOne(ctx, bson.M{"email": normalizeEmail(req.Email)})
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, msgInvalidLogin)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hospital.Password), []byte(req.Password)); err != nil {
		api.WriteError(w, http.StatusBadRequest, msgInvalidLogin)
		return
	}

	token, err := h.Auth.IssueToken(*hospital)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	api.WriteJSON(w, http.StatusOK, authResponse{Hospital: *hospital, Token: token})
}

// ProfileHandler returns the authenticated hospital
func (h Hospital) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	hospital, ok := h.current(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, hospital)
}

// UpdateProfileHandler applies a partial update. Any key outside the allowed set
// rejects the whole request.
func (h Hospital) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var updates map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for key := range updates {
		if !allowedProfileUpdates[key] {
			api.WriteError(w, http.StatusBadRequest, msgInvalidUpdate)
			return
		}
	}

	hospital, ok := h.current(w, r)
	if !ok {
		return
	}
	if err := applyProfileUpdates(hospital, updates); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	syncCapabilityTags(hospital)

	if !h.save(w, r, hospital) {
		return
	}
	api.WriteJSON(w, http.StatusOK, hospital)
}

// EmergencyCapacityHandler merges the body into the hospital's emergency capacity
func (h Hospital) EmergencyCapacityHandler(w http.ResponseWriter, r *http.Request) {
	hospital, ok := h.current(w, r)
	if !ok {
		return
	}

	capacity := models.EmergencyCapacity{}
	if hospital.EmergencyCapacity != nil {
		capacity = *hospital.EmergencyCapacity
	}
	// decoding into the existing value keeps fields the body leaves out
	if err := json.NewDecoder(r.Body).Decode(&capacity); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid emergency capacity")
		return
	}
	if err := validateCapacity(capacity); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hospital.EmergencyCapacity = &capacity

	if !h.save(w, r, hospital) {
		return
	}
	api.WriteJSON(w, http.StatusOK, capacity)
}

// FacilitiesHandler adds a facility or replaces the one with the same name
func (h Hospital) FacilitiesHandler(w http.ResponseWriter, r *http.Request) {
	var facility models.Facility
	if err := json.NewDecoder(r.Body).Decode(&facility); err != nil || strings.TrimSpace(facility.Name) == "" {
		api.WriteError(w, http.StatusBadRequest, "facility name is required")
		return
	}

	hospital, ok := h.current(w, r)
	if !ok {
		return
	}
	hospital.Facilities = upsertFacility(hospital.Facilities, facility)
	syncCapabilityTags(hospital)

	if !h.save(w, r, hospital) {
		return
	}
	api.WriteJSON(w, http.StatusOK, hospital.Facilities)
}

// SpecialtiesHandler adds a specialty or replaces the one with the same name
func (h Hospital) SpecialtiesHandler(w http.ResponseWriter, r *http.Request) {
	var specialty models.Specialty
	if err := json.NewDecoder(r.Body).Decode(&specialty); err != nil || strings.TrimSpace(specialty.Name) == "" {
		api.WriteError(w, http.StatusBadRequest, "specialty name is required")
		return
	}

	hospital, ok := h.current(w, r)
	if !ok {
		return
	}
	hospital.Specialties = upsertSpecialty(hospital.Specialties, specialty)
	syncCapabilityTags(hospital)

	if !h.save(w, r, hospital) {
		return
	}
	api.WriteJSON(w, http.StatusOK, hospital.Specialties)
}

// LogoutHandler revokes the token used for the request
func (h Hospital) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.RevokeToken(r); err != nil {
		zap.S().Warnw("failed to revoke token", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// NearbyHandler returns hospitals within maxDistance meters of a point, nearest first
func (h Hospital) NearbyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lon, errLon := strconv.ParseFloat(q.Get("longitude"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("latitude"), 64)
	origin := geo.Coordinate{Latitude: lat, Longitude: lon}
	if errLon != nil || errLat != nil || origin.Validate() != nil {
		api.WriteError(w, http.StatusBadRequest, "valid latitude and longitude are required")
		return
	}

	maxDistance := float64(databases.DefaultNearbyMeters)
	if v := q.Get("maxDistance"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d <= 0 {
			api.WriteError(w, http.StatusBadRequest, "maxDistance must be a positive number of meters")
			return
		}
		maxDistance = float64(d)
	}

	limit, errLimit := optionalInt(q.Get("limit"))
	page, errPage := optionalInt(q.Get("page"))
	if errLimit != nil || errPage != nil {
		api.WriteError(w, http.StatusBadRequest, "limit and page must be positive numbers")
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.Paginate(limit, page).SetProjection(bson.M{"password": 0})
	hospitals, err := h.DB.Find(ctx, databases.NearbyFilter(origin, maxDistance), opts)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, hospitals)
}

// current loads the authenticated hospital, writing a 401 when it cannot
func (h Hospital) current(w http.ResponseWriter, r *http.Request) (*models.Hospital, bool) {
	id, ok := api.HospitalIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, msgAuthenticate)
		return nil, false
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hospital, err := h.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		api.WriteError(w, http.StatusUnauthorized, msgAuthenticate)
		return nil, false
	}
	return hospital, true
}

// save writes every mutable field of the hospital back, writing a 400 on failure
func (h Hospital) save(w http.ResponseWriter, r *http.Request, hospital *models.Hospital) bool {
	hospital.UpdatedAt = time.Now().UTC()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := h.DB.UpdateOne(ctx, bson.M{"_id": hospital.ID}, bson.M{"$set": bson.M{
		"name":              hospital.Name,
		"phone":             hospital.Phone,
		"address":           hospital.Address,
		"location":          hospital.Location,
		"hasICU":            hospital.HasICU,
		"specialists":       hospital.Specialists,
		"equipment":         hospital.Equipment,
		"facilities":        hospital.Facilities,
		"specialties":       hospital.Specialties,
		"emergencyCapacity": hospital.EmergencyCapacity,
		"updatedAt":         hospital.UpdatedAt,
	}})
	if err != nil {
		zap.S().Errorw("failed to update hospital", "id", hospital.ID.Hex(), "error", err)
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h Hospital) sendWelcome(hospital models.Hospital) {
	if h.Mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), welcomeTimeout)
		defer cancel()
		if err := h.Mailer.SendWelcome(ctx, hospital.Email, hospital.Name); err != nil {
			zap.S().Warnw("failed to send welcome email", "email", hospital.Email, "error", err)
		}
	}()
}

func (req registerRequest) toHospital() (models.Hospital, error) {
	name := strings.TrimSpace(req.HospitalName)
	if name == "" {
		name = strings.TrimSpace(req.Name)
	}
	email := normalizeEmail(req.Email)

	switch {
	case name == "":
		return models.Hospital{}, errors.New("hospitalName is required")
	case email == "":
		return models.Hospital{}, errors.New("email is required")
	case !validEmail(email):
		return models.Hospital{}, errors.New("email is invalid")
	case len(req.Password) < minPasswordLength:
		return models.Hospital{}, errors.New("password must be at least 6 characters")
	case strings.TrimSpace(req.Phone) == "":
		return models.Hospital{}, errors.New("phone is required")
	case strings.TrimSpace(req.Address) == "":
		return models.Hospital{}, errors.New("address is required")
	case strings.TrimSpace(req.LicenseNumber) == "":
		return models.Hospital{}, errors.New("licenseNumber is required")
	}

	location := geo.Point{Type: geo.PointType, Coordinates: []float64{0, 0}}
	if req.Location != nil {
		location = *req.Location
		if location.Type == "" {
			location.Type = geo.PointType
		}
		if err := location.Validate(); err != nil {
			return models.Hospital{}, err
		}
	}

	if req.EmergencyCapacity != nil {
		if err := validateCapacity(*req.EmergencyCapacity); err != nil {
			return models.Hospital{}, err
		}
	}

	now := time.Now().UTC()
	hospital := models.Hospital{
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(req.Phone),
		Address:           strings.TrimSpace(req.Address),
		LicenseNumber:     strings.TrimSpace(req.LicenseNumber),
		Location:          location,
		HasICU:            req.HasICU,
		Specialists:       normalizeTags(req.Specialists),
		Equipment:         normalizeTags(req.Equipment),
		Facilities:        req.Facilities,
		Specialties:       req.Specialties,
		EmergencyCapacity: req.EmergencyCapacity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	syncCapabilityTags(&hospital)
	return hospital, nil
}

func applyProfileUpdates(h *models.Hospital, updates map[string]json.RawMessage) error {
	for key, raw := range updates {
		var err error
		switch key {
		case "hospitalName", "name":
			var name string
			if err = json.Unmarshal(raw, &name); err == nil {
				if strings.TrimSpace(name) == "" {
					return errors.New("hospitalName cannot be empty")
				}
				h.Name = strings.TrimSpace(name)
			}
		case "phone":
			err = json.Unmarshal(raw, &h.Phone)
		case "address":
			err = json.Unmarshal(raw, &h.Address)
		case "facilities":
			err = json.Unmarshal(raw, &h.Facilities)
		case "specialties":
			err = json.Unmarshal(raw, &h.Specialties)
		case "emergencyCapacity":
			var c models.EmergencyCapacity
			if err = json.Unmarshal(raw, &c); err == nil {
				if err = validateCapacity(c); err == nil {
					h.EmergencyCapacity = &c
				}
			}
		case "location":
			var p geo.Point
			if err = json.Unmarshal(raw, &p); err == nil {
				if p.Type == "" {
					p.Type = geo.PointType
				}
				if err = p.Validate(); err == nil {
					h.Location = p
				}
			}
		case "hasICU":
			err = json.Unmarshal(raw, &h.HasICU)
		case "specialists":
			var tags []string
			if err = json.Unmarshal(raw, &tags); err == nil {
				h.Specialists = normalizeTags(tags)
			}
		case "equipment":
			var tags []string
			if err = json.Unmarshal(raw, &tags); err == nil {
				h.Equipment = normalizeTags(tags)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func validateCapacity(c models.EmergencyCapacity) error {
	if c.TotalBeds < 0 || c.AvailableBeds < 0 || c.ICUBeds.Total < 0 || c.ICUBeds.Available < 0 ||
		c.Ventilators.Total < 0 || c.Ventilators.Available < 0 {
		return errors.New("capacity values cannot be negative")
	}
	return nil
}

func upsertFacility(list []models.Facility, f models.Facility) []models.Facility {
	for i := range list {
		if list[i].Name == f.Name {
			list[i] = f
			return list
		}
	}
	return append(list, f)
}

func upsertSpecialty(list []models.Specialty, s models.Specialty) []models.Specialty {
	for i := range list {
		if list[i].Name == s.Name {
			list[i] = s
			return list
		}
	}
	return append(list, s)
}

// syncCapabilityTags keeps the ranking tags in line with the detailed records.
// Available facilities become equipment tags, unavailable ones are dropped, and
// staffed specialties become specialist tags.
func syncCapabilityTags(h *models.Hospital) {
	for _, f := range h.Facilities {
		tag := tagFor(f.Name)
		if tag == "" {
			continue
		}
		if f.Availability {
			h.Equipment = addTag(h.Equipment, tag)
		} else {
			h.Equipment = removeTag(h.Equipment, tag)
		}
	}
	for _, s := range h.Specialties {
		tag := tagFor(s.Name)
		if tag == "" {
			continue
		}
		if s.DoctorsCount > 0 {
			h.Specialists = addTag(h.Specialists, tag)
		} else {
			h.Specialists = removeTag(h.Specialists, tag)
		}
	}
	if h.Specialists == nil {
		h.Specialists = []string{}
	}
	if h.Equipment == nil {
		h.Equipment = []string{}
	}
}

// tagFor turns a display name like "CT Scanner" into the tag "ct_scanner"
func tagFor(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if tag := tagFor(t); tag != "" {
			out = addTag(out, tag)
		}
	}
	return out
}

func addTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func removeTag(tags []string, tag string) []string {
	out := tags[:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// optionalInt parses a positive integer query value, returning 0 when it is absent
func optionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
