// Package registryclient resolves clinics, doctors and patients from the
// registry service over HTTP.
package registryclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

type clinicDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

type doctorDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SpecialtyID int64  `json:"specialtyId"`
	CRM         string `json:"crm"`
	Active      bool   `json:"active"`
}

type patientDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Active bool   `json:"active"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New builds a client for baseURL. A nil httpClient gets one with timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse registry base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("registry base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

func (c *Client) GetClinic(ctx context.Context, id int64) (*appointment.Clinic, error) {
	var dto clinicDTO
	found, err := c.get(ctx, fmt.Sprintf("Clinica/%d", id), &dto)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appointment.ErrClinicNotFound
	}
	return &appointment.Clinic{ID: dto.ID, Name: dto.Name, Address: dto.Address, Active: dto.Active}, nil
}

func (c *Client) GetDoctor(ctx context.Context, id int64) (*appointment.Doctor, error) {
	var dto doctorDTO
	found, err := c.get(ctx, fmt.Sprintf("Medico/%d", id), &dto)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appointment.ErrDoctorNotFound
	}
	d := toDoctor(dto)
	return &d, nil
}

func (c *Client) GetPatient(ctx context.Context, id int64) (*appointment.Patient, error) {
	var dto patientDTO
	found, err := c.get(ctx, fmt.Sprintf("Paciente/%d", id), &dto)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appointment.ErrPatientNotFound
	}
	return &appointment.Patient{ID: dto.ID, Name: dto.Name, Email: dto.Email, Phone: dto.Phone, Active: dto.Active}, nil
}

// GetDoctorsBySpecialty returns an empty list when the registry has nothing.
func (c *Client) GetDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]appointment.Doctor, error) {
	var dtos []doctorDTO
	found, err := c.get(ctx, fmt.Sprintf("Medico/ByEspecialidade/%d", specialtyID), &dtos)
	if err != nil {
		return nil, err
	}
	out := make([]appointment.Doctor, 0, len(dtos))
	if !found {
		return out, nil
	}
	for _, d := range dtos {
		out = append(out, toDoctor(d))
	}
	return out, nil
}

func toDoctor(dto doctorDTO) appointment.Doctor {
	return appointment.Doctor{ID: dto.ID, Name: dto.Name, SpecialtyID: dto.SpecialtyID, CRM: dto.CRM, Active: dto.Active}
}

// get decodes a 2xx body into out. Any other status reports found=false.
func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("registry GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode != http.StatusNotFound {
			logger.Warn("registry returned non-success status",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
			)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return true, nil
}

var _ appointment.RegistryClient = (*Client)(nil)
