package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"siboltech/hydroponics/server/internal/models"
	"siboltech/hydroponics/server/internal/validator"
)

func ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

// readingUnits maps the sensor names the controller uploads to their units.
var readingUnits = map[string]string{
	"temperature_c": "C",
	"humidity":      "%",
	"pressure_hpa":  "hPa",
	"ph":            "pH",
	"tds_ppm":       "ppm",
	"do_mg_per_l":   "mg/L",
	"ph_voltage_v":  "V",
	"do_voltage_v":  "V",
}

type ingestRequest struct {
	Key      string             `json:"key"`
	Device   string             `json:"device"`
	TS       string             `json:"ts"`
	Readings map[string]float64 `json:"readings"`
}

func (app *application) apiIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}
	if req.Key != app.apiKey {
		app.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid key"})
		return
	}

	ts := time.Now().UTC()
	if req.TS != "" {
		if parsed, err := time.Parse(time.RFC3339, req.TS); err == nil {
			ts = parsed.UTC()
		}
	}

	saved := 0
	for sensor, value := range req.Readings {
		err := app.readings.Insert(req.Device, sensor, value, readingUnits[sensor], ts)
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		saved++
	}
	app.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "saved": saved})
}

func (app *application) apiRelayPending(w http.ResponseWriter, r *http.Request) {
	mask, err := app.relays.DesiredMask()
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]string{"states": mask})
}

type relaySetRequest struct {
	Key    string `json:"key"`
	States string `json:"states"`
	Relay  int    `json:"relay"`
	State  string `json:"state"`
}

func (app *application) apiRelaySet(w http.ResponseWriter, r *http.Request) {
	var req relaySetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}
	if req.Key != app.apiKey {
		app.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid key"})
		return
	}

	var mask string
	var err error
	switch {
	case req.States != "":
		err = app.relays.SetDesiredMask(req.States, "api")
		mask = req.States
	case req.Relay != 0:
		mask, err = app.relays.SetRelay(req.Relay, strings.EqualFold(req.State, "ON"), "api")
	default:
		app.clientError(w, http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, models.ErrInvalidMask) {
			app.clientError(w, http.StatusBadRequest)
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]string{"states": mask})
}

func (app *application) apiLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := app.readings.Latest()
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, latest)
}

func (app *application) apiReadings(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-time.Hour)
	readings, err := app.readings.Recent(since, 200)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	app.writeJSON(w, http.StatusOK, readings)
}

func (app *application) apiDBStatus(w http.ResponseWriter, r *http.Request) {
	count, err := app.readings.Count()
	if err != nil {
		app.writeJSON(w, http.StatusOK, map[string]any{"db_connected": false, "error": err.Error()})
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]any{"db_connected": true, "record_count": count})
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	latest, err := app.readings.Latest()
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	mask, err := app.relays.DesiredMask()
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	events, err := app.relays.Events(20)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	relays := make([]relayView, len(mask))
	for i := range mask {
		relays[i] = relayView{N: i + 1, On: mask[i] == '1'}
	}

	data := app.newTemplateData(r)
	data.Latest = latest
	data.Relays = relays
	data.Events = events
	app.render(w, r, http.StatusOK, "home.html", data)
}

type relayForm struct {
	Relay int    `form:"relay"`
	State string `form:"state"`
	All   string `form:"all"`
}

func (app *application) relayPost(w http.ResponseWriter, r *http.Request) {
	var form relayForm
	if err := app.decodePostForm(r, &form); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	var err error
	if form.All != "" {
		bit := "0"
		if strings.EqualFold(form.All, "on") {
			bit = "1"
		}
		err = app.relays.SetDesiredMask(strings.Repeat(bit, app.relays.Size()), "dashboard")
	} else {
		_, err = app.relays.SetRelay(form.Relay, strings.EqualFold(form.State, "ON"), "dashboard")
	}
	if err != nil {
		if errors.Is(err, models.ErrInvalidMask) {
			app.clientError(w, http.StatusBadRequest)
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Relay state updated.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type userLoginForm struct {
	Email               string `form:"email"`
	Password            string `form:"password"`
	validator.Validator `form:"-"`
}

func (app *application) userLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := app.newTemplateData(r)
	data.Form = userLoginForm{}
	app.render(w, r, http.StatusOK, "login.html", data)
}

func (app *application) userLoginPost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var form userLoginForm
	if err := app.decodePostForm(r, &form); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	form.CheckField(validator.NotBlank(form.Email), "email", "This field cannot be blank")
	form.CheckField(validator.Matches(form.Email, validator.EmailRX), "email", "This field must be a valid email address")
	form.CheckField(validator.NotBlank(form.Password), "password", "This field cannot be blank")
	if !form.Valid() {
		data := app.newTemplateData(r)
		data.Form = form
		app.render(w, r, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	id, err := app.users.Authenticate(form.Email, form.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			form.AddNonFieldError("Email or password is incorrect")
			data := app.newTemplateData(r)
			data.Form = form
			app.render(w, r, http.StatusUnprocessableEntity, "login.html", data)
		} else {
			app.serverError(w, r, err)
		}
		return
	}
	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Put(r.Context(), "authenticatedUserID", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) userLogoutPost(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Remove(r.Context(), "authenticatedUserID")
	app.sessionManager.Put(r.Context(), "flash", "You've been logged out successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
