package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
)

// Client talks to the payroll ERP REST API.
type Client struct {
	http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		Client:  http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// APIError is a non-2xx answer. Message carries the ERP's own text so it can
// be shown to the administrator unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("payroll system returned status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusConflict:
		return payroll.ErrDuplicateRecord
	case http.StatusNotFound:
		return payroll.ErrRecordNotFound
	}
	return nil
}

// Temporary reports whether a retry could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type absenceTypeDTO struct {
	Code               string `json:"codigo"`
	Description        string `json:"descricao"`
	IsHourBased        flag   `json:"em_horas"`
	DeductsMealSubsidy flag   `json:"desconta_sa"`
}

type overtimeTypeDTO struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
}

type absenceDTO struct {
	EmployeeCode       string `json:"cod_funcionario"`
	Date               string `json:"data_falta"`
	TypeCode           string `json:"cod_falta"`
	Duration           string `json:"duracao"`
	IsHourBased        flag   `json:"em_horas"`
	DeductsMealSubsidy flag   `json:"desconta_sa"`
}

type overtimeDTO struct {
	EmployeeCode  string `json:"cod_func_he"`
	Date          string `json:"data_he"`
	TypeCode      string `json:"cod_he"`
	DurationHours string `json:"horas_he"`
}

func (c *Client) ListAbsenceTypes(ctx context.Context) (map[string]payroll.AbsenceType, error) {
	var rows []absenceTypeDTO
	if err := c.do(ctx, http.MethodGet, "/tipos-falta", nil, nil, &rows); err != nil {
		return nil, err
	}

	types := make(map[string]payroll.AbsenceType, len(rows))
	for _, r := range rows {
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if code == "" {
			continue
		}
		types[code] = payroll.AbsenceType{
			Code:               code,
			Description:        strings.TrimSpace(r.Description),
			IsHourBased:        bool(r.IsHourBased),
			DeductsMealSubsidy: bool(r.DeductsMealSubsidy),
		}
	}
	return types, nil
}

func (c *Client) ListOvertimeTypes(ctx context.Context) (map[string]payroll.OvertimeType, error) {
	var rows []overtimeTypeDTO
	if err := c.do(ctx, http.MethodGet, "/tipos-he", nil, nil, &rows); err != nil {
		return nil, err
	}

	types := make(map[string]payroll.OvertimeType, len(rows))
	for _, r := range rows {
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if code == "" {
			continue
		}
		types[code] = payroll.OvertimeType{Code: code, Description: strings.TrimSpace(r.Description)}
	}
	return types, nil
}

func (c *Client) ListMonthly(ctx context.Context, year, month int) ([]payroll.MonthlyRow, error) {
	query := url.Values{}
	query.Set("ano", strconv.Itoa(year))
	query.Set("mes", strconv.Itoa(month))

	var rows []payroll.MonthlyRow
	if err := c.do(ctx, http.MethodGet, "/movimentos", query, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) InsertAbsence(ctx context.Context, record payroll.AbsenceRecord) error {
	body := absenceDTO{
		EmployeeCode:       record.EmployeeCode,
		Date:               record.Date.Format("2006-01-02"),
		TypeCode:           record.TypeCode,
		Duration:           record.Duration.String(),
		IsHourBased:        flag(record.IsHourBased),
		DeductsMealSubsidy: flag(record.DeductsMealSubsidy),
	}
	return c.do(ctx, http.MethodPost, "/faltas", nil, body, nil)
}

func (c *Client) DeleteAbsence(ctx context.Context, employeeCode string, date time.Time, typeCode string) error {
	query := url.Values{}
	query.Set("cod_funcionario", employeeCode)
	query.Set("data", date.Format("2006-01-02"))
	query.Set("cod_falta", typeCode)
	return c.do(ctx, http.MethodDelete, "/faltas", query, nil, nil)
}

func (c *Client) InsertOvertime(ctx context.Context, record payroll.OvertimeRecord) error {
	body := overtimeDTO{
		EmployeeCode:  record.EmployeeCode,
		Date:          record.Date.Format("2006-01-02"),
		TypeCode:      record.TypeCode,
		DurationHours: record.DurationHours.String(),
	}
	return c.do(ctx, http.MethodPost, "/horas-extras", nil, body, nil)
}

func (c *Client) DeleteOvertime(ctx context.Context, externalID string) error {
	if externalID == "" {
		return payroll.ErrMissingExternalID
	}
	return c.do(ctx, http.MethodDelete, "/horas-extras/"+url.PathEscape(externalID), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// readAPIError extracts the ERP message from a JSON body, falling back to
// the raw text.
func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body map[string]any
	if json.Unmarshal(raw, &body) == nil {
		for _, key := range []string{"mensagem", "message", "erro", "error"} {
			if msg, ok := body[key].(string); ok && msg != "" {
				apiErr.Message = msg
				return apiErr
			}
		}
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}

// IsTemporary reports whether err is a transient ERP failure.
func IsTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return err != nil
}

// flag decodes the ERP's S/N booleans and encodes them back as S/N.
type flag bool

func (f flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"S"`), nil
	}
	return []byte(`"N"`), nil
}

func (f *flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = flag(t)
	case float64:
		*f = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "s", "sim", "y", "yes", "true", "1":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}
	return nil
}
