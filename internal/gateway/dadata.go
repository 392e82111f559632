package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"contactfinder/internal/model"
)

const (
	partyPath = "/suggestions/api/4_1/rs/suggest/party"
	phonePath = "/suggestions/api/4_1/rs/findById/phone"
)

// SuggestClient queries a DaData-style suggestions API. A client built
// without a token answers ErrNotFound for everything, so the rest of the
// system keeps working in environments without provider credentials.
type SuggestClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	secret     string
}

func NewSuggestClient(baseURL, token, secret string) *SuggestClient {
	return &SuggestClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		token:      token,
		secret:     secret,
	}
}

type suggestRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// contactValue tolerates the provider sending contacts either as plain
// strings or as {"value": ...} objects; both occur in real responses.
type contactValue struct {
	Value string
}

func (c *contactValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &c.Value)
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	c.Value = obj.Value
	return nil
}

type suggestResponse struct {
	Suggestions []struct {
		Value string `json:"value"`
		Data  struct {
			Inn  string `json:"inn"`
			Ogrn string `json:"ogrn"`
			Kpp  string `json:"kpp"`
			Name struct {
				FullWithOpf  string `json:"full_with_opf"`
				ShortWithOpf string `json:"short_with_opf"`
			} `json:"name"`
			Management struct {
				Name string `json:"name"`
				Post string `json:"post"`
			} `json:"management"`
			State struct {
				Status           string `json:"status"`
				RegistrationDate int64  `json:"registration_date"`
			} `json:"state"`
			Address struct {
				Value string `json:"value"`
			} `json:"address"`
			Emails []contactValue `json:"emails"`
			Phones []contactValue `json:"phones"`
		} `json:"data"`
	} `json:"suggestions"`
}

func (c *SuggestClient) Search(ctx context.Context, query string, kind model.QueryKind) (*model.CompanyProfile, error) {
	if c.token == "" {
		return nil, ErrNotFound
	}

	path := partyPath
	if kind == model.QueryKindPhone {
		path = phonePath
	}

	body, err := json.Marshal(suggestRequest{Query: query, Count: 1})
	if err != nil {
		return nil, fmt.Errorf("encode suggest request: %w", err)
	}

	var parsed suggestResponse
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Token "+c.token)
		if c.secret != "" {
			req.Header.Set("X-Secret", c.secret)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("suggest api: status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("suggest api: status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("decode suggest response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(parsed.Suggestions) == 0 {
		return nil, ErrNotFound
	}
	return toProfile(&parsed), nil
}

func toProfile(resp *suggestResponse) *model.CompanyProfile {
	data := &resp.Suggestions[0].Data

	profile := &model.CompanyProfile{
		LegalName:       data.Name.FullWithOpf,
		ShortName:       data.Name.ShortWithOpf,
		TaxID:           data.Inn,
		RegistrationID:  data.Ogrn,
		TaxRegistryCode: data.Kpp,
		Status:          data.State.Status,
		Address:         data.Address.Value,
		DirectorName:    data.Management.Name,
		DirectorTitle:   data.Management.Post,
	}
	if profile.LegalName == "" {
		profile.LegalName = resp.Suggestions[0].Value
	}
	if profile.DirectorName != "" && profile.DirectorTitle == "" {
		profile.DirectorTitle = "Генеральный директор"
	}
	if data.State.RegistrationDate > 0 {
		profile.RegisteredAt = time.UnixMilli(data.State.RegistrationDate).UTC().Format("2006-01-02")
	}
	if len(data.Emails) > 0 {
		profile.Email = data.Emails[0].Value
	}
	if len(data.Phones) > 0 {
		profile.Phone = data.Phones[0].Value
	}
	return profile
}
