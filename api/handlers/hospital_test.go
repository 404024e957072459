package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/chetak-health/chetak-api/api"
	"github.com/chetak-health/chetak-api/databases/mocks"
	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/models"
)

const registerBody = `{
	"hospitalName": "City General",
	"email": " ER@CityGeneral.in ",
	"password": "secret123",
	"phone": "9820000000",
	"address": "Andheri East, Mumbai",
	"licenseNumber": "MH-1234",
	"location": {"type": "Point", "coordinates": [72.88, 19.088]},
	"hasICU": true,
	"specialists": ["Cardiologist"],
	"facilities": [{"name": "CT Scanner", "availability": true}]
}`

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (m *recordingMailer) SendWelcome(ctx context.Context, toEmail, hospitalName string) error {
	m.mu.Lock()
	m.sent = append(m.sent, toEmail)
	m.mu.Unlock()
	close(m.done)
	return nil
}

func storedHospital(t *testing.T) models.Hospital {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return models.Hospital{
		ID:          primitive.NewObjectID(),
		Name:        "City General",
		Email:       "er@citygeneral.in",
		Password:    string(hash),
		Location:    geo.NewPoint(geo.Coordinate{Latitude: 19.088, Longitude: 72.88}),
		Specialists: []string{"cardiologist"},
		Equipment:   []string{"ecg"},
		EmergencyCapacity: &models.EmergencyCapacity{
			TotalBeds:     100,
			AvailableBeds: 20,
			ICUBeds:       models.BedCount{Total: 10, Available: 2},
		},
	}
}

// clone copies the hospital so handlers cannot alias the stored slices
func clone(h models.Hospital) *models.Hospital {
	c := h
	c.Specialists = append([]string(nil), h.Specialists...)
	c.Equipment = append([]string(nil), h.Equipment...)
	c.Facilities = append([]models.Facility(nil), h.Facilities...)
	c.Specialties = append([]models.Specialty(nil), h.Specialties...)
	if h.EmergencyCapacity != nil {
		capacity := *h.EmergencyCapacity
		c.EmergencyCapacity = &capacity
	}
	return &c
}

// authedApp returns an app whose database always resolves the stored hospital, and a
// valid token for it.
func authedApp(t *testing.T, h models.Hospital) (*mocks.HospitalDatabase, string) {
	t.Helper()
	db := &mocks.HospitalDatabase{}
	db.On("FindOne", mock.Anything, bson.M{"_id": h.ID}).Return(func(context.Context, interface{}) *models.Hospital {
		return clone(h)
	}, nil)
	newTestApp(db)

	token, err := api.NewAuth(db, a.Config.JWTSecret, a.Config.TokenTTL).IssueToken(h)
	require.NoError(t, err)
	return db, token
}

func authed(method, path, body, token string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRegisterHandler(t *testing.T) {
	id := primitive.NewObjectID()
	db := &mocks.HospitalDatabase{}
	db.On("InsertOne", mock.Anything, mock.MatchedBy(func(h models.Hospital) bool {
		return h.Email == "er@citygeneral.in" &&
			bcrypt.CompareHashAndPassword([]byte(h.Password), []byte("secret123")) == nil &&
			h.HasEquipment("ct_scanner") && h.HasSpecialist("cardiologist")
	})).Return(id, nil)

	m := &recordingMailer{done: make(chan struct{})}
	a = App{Config: testConfig(), HospitalDB: db, Mailer: m}
	a.Router = a.New()

	response := executeRequest(httptest.NewRequest("POST", "/api/hospital/register", strings.NewReader(registerBody)))
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	var body struct {
		Hospital map[string]interface{} `json:"hospital"`
		Token    string                 `json:"token"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, id.Hex(), body.Hospital["_id"])
	assert.Equal(t, "City General", body.Hospital["name"])
	assert.NotContains(t, body.Hospital, "password")

	<-m.done
	assert.Equal(t, []string{"er@citygeneral.in"}, m.sent)
}

func TestRegisterHandlerValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing name", `{"email":"a@b.in","password":"secret123","phone":"1","address":"x","licenseNumber":"L"}`},
		{"bad email", `{"hospitalName":"A","email":"nope","password":"secret123","phone":"1","address":"x","licenseNumber":"L"}`},
		{"short password", `{"hospitalName":"A","email":"a@b.in","password":"123","phone":"1","address":"x","licenseNumber":"L"}`},
		{"missing license", `{"hospitalName":"A","email":"a@b.in","password":"secret123","phone":"1","address":"x"}`},
		{"bad location", `{"hospitalName":"A","email":"a@b.in","password":"secret123","phone":"1","address":"x","licenseNumber":"L","location":{"coordinates":[200,10]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestApp(&mocks.HospitalDatabase{})
			response := executeRequest(httptest.NewRequest("POST", "/api/hospital/register", strings.NewReader(tt.body)))
			checkResponseCode(t, http.StatusBadRequest, response.Code)
			assert.Contains(t, response.Body.String(), `"error"`)
		})
	}
}

func TestRegisterHandlerDuplicate(t *testing.T) {
	db := &mocks.HospitalDatabase{}
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	db.On("InsertOne", mock.Anything, mock.Anything).Return(nil, dup)
	newTestApp(db)

	response := executeRequest(httptest.NewRequest("POST", "/api/hospital/register", strings.NewReader(registerBody)))
	checkResponseCode(t, http.StatusConflict, response.Code)
}

func TestLoginHandler(t *testing.T) {
	h := storedHospital(t)
	db := &mocks.HospitalDatabase{}
	db.On("FindOne", mock.Anything, bson.M{"email": "er@citygeneral.in"}).Return(&h, nil)
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	newTestApp(db)

	response := executeRequest(httptest.NewRequest("POST", "/api/hospital/login",
		strings.NewReader(`{"email":"ER@citygeneral.in","password":"secret123"}`)))
	require.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), `"token"`)
	assert.NotContains(t, response.Body.String(), "password")

	for _, body := range []string{
		`{"email":"er@citygeneral.in","password":"wrong-password"}`,
		`{"email":"nobody@citygeneral.in","password":"secret123"}`,
	} {
		response = executeRequest(httptest.NewRequest("POST", "/api/hospital/login", strings.NewReader(body)))
		checkResponseCode(t, http.StatusBadRequest, response.Code)
		assert.JSONEq(t, `{"error":"Invalid login credentials"}`, response.Body.String())
	}
}

func TestProfileHandler(t *testing.T) {
	h := storedHospital(t)
	_, token := authedApp(t, h)

	response := executeRequest(authed("GET", "/api/hospital/profile", "", token))
	require.Equal(t, http.StatusOK, response.Code)

	var got models.Hospital
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &got))
	assert.Equal(t, h.ID, got.ID)
	assert.Empty(t, got.Password)
}

func TestUpdateProfileHandler(t *testing.T) {
	h := storedHospital(t)
	db, token := authedApp(t, h)
	db.On("UpdateOne", mock.Anything, bson.M{"_id": h.ID}, mock.MatchedBy(func(u bson.M) bool {
		set := u["$set"].(bson.M)
		return set["name"] == "City General Hospital" && set["hasICU"] == true
	})).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	response := executeRequest(authed("PATCH", "/api/hospital/profile",
		`{"hospitalName":"City General Hospital","hasICU":true,"equipment":["Defibrillator"]}`, token))
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	var got models.Hospital
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &got))
	assert.Equal(t, "City General Hospital", got.Name)
	assert.Equal(t, []string{"defibrillator"}, got.Equipment)
	db.AssertCalled(t, "UpdateOne", mock.Anything, bson.M{"_id": h.ID}, mock.Anything)
}

func TestUpdateProfileHandlerRejectsUnknownKeys(t *testing.T) {
	h := storedHospital(t)
	db, token := authedApp(t, h)

	response := executeRequest(authed("PATCH", "/api/hospital/profile", `{"phone":"1","email":"x@y.z"}`, token))
	checkResponseCode(t, http.StatusBadRequest, response.Code)
	assert.JSONEq(t, `{"error":"Invalid updates!"}`, response.Body.String())
	db.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestEmergencyCapacityHandlerMerges(t *testing.T) {
	h := storedHospital(t)
	db, token := authedApp(t, h)
	db.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	response := executeRequest(authed("PATCH", "/api/hospital/emergency-capacity",
		`{"availableBeds":5,"icuBeds":{"available":0}}`, token))
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	var got models.EmergencyCapacity
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &got))
	assert.Equal(t, 100, got.TotalBeds)
	assert.Equal(t, 5, got.AvailableBeds)
	assert.Equal(t, models.BedCount{Total: 10, Available: 0}, got.ICUBeds)
}

func TestEmergencyCapacityHandlerRejectsNegative(t *testing.T) {
	h := storedHospital(t)
	_, token := authedApp(t, h)

	response := executeRequest(authed("PATCH", "/api/hospital/emergency-capacity", `{"availableBeds":-1}`, token))
	checkResponseCode(t, http.StatusBadRequest, response.Code)
}

func equipmentUpdate(want ...string) interface{} {
	return mock.MatchedBy(func(u bson.M) bool {
		got := u["$set"].(bson.M)["equipment"].([]string)
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	})
}

func TestFacilitiesHandler(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantEquipment []string
		wantCount     int
	}{
		{"marks existing facility unavailable", `{"name":"MRI","availability":false}`, []string{}, 1},
		{"adds new facility", `{"name":"Ventilator","availability":true}`, []string{"mri", "ventilator"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := storedHospital(t)
			h.Facilities = []models.Facility{{Name: "MRI", Availability: true}}
			h.Equipment = []string{"mri"}
			db, token := authedApp(t, h)
			db.On("UpdateOne", mock.Anything, bson.M{"_id": h.ID}, equipmentUpdate(tt.wantEquipment...)).
				Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

			response := executeRequest(authed("POST", "/api/hospital/facilities", tt.body, token))
			require.Equal(t, http.StatusOK, response.Code, response.Body.String())

			var got []models.Facility
			require.NoError(t, json.Unmarshal(response.Body.Bytes(), &got))
			assert.Len(t, got, tt.wantCount)
			db.AssertExpectations(t)
		})
	}
}

func TestFacilitiesHandlerRequiresName(t *testing.T) {
	h := storedHospital(t)
	db, token := authedApp(t, h)

	response := executeRequest(authed("POST", "/api/hospital/facilities", `{"name":"  "}`, token))
	checkResponseCode(t, http.StatusBadRequest, response.Code)
	db.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestFacilitiesHandlerUpdateFails(t *testing.T) {
	h := storedHospital(t)
	db, token := authedApp(t, h)
	db.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("write failed"))

	response := executeRequest(authed("POST", "/api/hospital/facilities", `{"name":"MRI","availability":true}`, token))
	checkResponseCode(t, http.StatusBadRequest, response.Code)
}

func TestSpecialtiesHandler(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCount   int
		wantDoctors int
	}{
		{"adds new specialty", `{"name":"Neurologist","doctorsCount":3}`, 2, 2},
		{"replaces existing specialty", `{"name":"Cardiologist","doctorsCount":5}`, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := storedHospital(t)
			h.Specialties = []models.Specialty{{Name: "Cardiologist", DoctorsCount: 2}}
			db, token := authedApp(t, h)
			db.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

			response := executeRequest(authed("POST", "/api/hospital/specialties", tt.body, token))
			require.Equal(t, http.StatusOK, response.Code, response.Body.String())

			var got []models.Specialty
			require.NoError(t, json.Unmarshal(response.Body.Bytes(), &got))
			require.Len(t, got, tt.wantCount)
			assert.Equal(t, "Cardiologist", got[0].Name)
			assert.Equal(t, tt.wantDoctors, got[0].DoctorsCount)
		})
	}
}

func TestLogoutHandlerRevokesToken(t *testing.T) {
	h := storedHospital(t)
	_, token := authedApp(t, h)

	response := executeRequest(authed("GET", "/api/hospital/profile", "", token))
	require.Equal(t, http.StatusOK, response.Code)

	response = executeRequest(authed("DELETE", "/api/hospital/logout", "", token))
	require.Equal(t, http.StatusOK, response.Code)

	response = executeRequest(authed("GET", "/api/hospital/profile", "", token))
	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestNearbyHandler(t *testing.T) {
	h := storedHospital(t)
	h.Password = ""
	db := &mocks.HospitalDatabase{}
	db.On("Find", mock.Anything, mock.MatchedBy(func(f bson.M) bool {
		near := f["location"].(bson.M)["$near"].(bson.M)
		return near["$maxDistance"] == 2500.0
	}), mock.MatchedBy(func(o *options.FindOptions) bool {
		return *o.Limit == 5 && *o.Skip == 5 && assert.ObjectsAreEqual(bson.M{"password": 0}, o.Projection)
	})).Return([]models.Hospital{h}, nil)
	newTestApp(db)

	response := executeRequest(httptest.NewRequest("GET", "/api/hospital/nearby?longitude=72.88&latitude=19.08&maxDistance=2500&limit=5&page=2", nil))
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())
	assert.Contains(t, response.Body.String(), "City General")
	db.AssertExpectations(t)

	for _, query := range []string{
		"longitude=abc&latitude=19.08",
		"longitude=72.88&latitude=95",
		"longitude=72.88&latitude=19.08&maxDistance=-5",
		"longitude=72.88&latitude=19.08&page=0",
		"longitude=72.88&latitude=19.08&limit=ten",
	} {
		response = executeRequest(httptest.NewRequest("GET", "/api/hospital/nearby?"+query, nil))
		checkResponseCode(t, http.StatusBadRequest, response.Code)
	}
}

func TestSyncCapabilityTags(t *testing.T) {
	h := models.Hospital{
		Equipment:   []string{"mri", "ecg"},
		Facilities:  []models.Facility{{Name: "MRI", Availability: false}, {Name: "Blood Bank", Availability: true}},
		Specialties: []models.Specialty{{Name: "General Surgeon", DoctorsCount: 1}},
	}
	syncCapabilityTags(&h)

	assert.Equal(t, []string{"ecg", "blood_bank"}, h.Equipment)
	assert.Equal(t, []string{"general_surgeon"}, h.Specialists)
}
