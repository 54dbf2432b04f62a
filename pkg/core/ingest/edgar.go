// Package ingest implements the filing retrieval collaborator against SEC
// EDGAR. API documentation: https://www.sec.gov/developer
//
// Failures are classified as NotFound, RateLimited or Transient via
// models.RetrievalError; RateLimited/Transient are retryable by the caller,
// never by this client.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"risk_analyzer/pkg/models"
)

const (
	secSubmissionsURL = "https://data.sec.gov/submissions/CIK%s.json"
	secArchiveURL     = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s"
	secTickersURL     = "https://www.sec.gov/files/company_tickers.json"

	// Required User-Agent per SEC fair-access guidelines.
	userAgent = "RiskAnalyzer/1.0 (contact@example.com)"

	// SEC allows at most 10 requests per second per client.
	requestsPerSecond = 10
)

// Client fetches 10-K filings from SEC EDGAR, rate limited to the SEC
// fair-access ceiling.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	// Endpoint templates, overridable in tests.
	submissionsURL string
	archiveURL     string
	tickersURL     string
}

// NewClient creates an EDGAR client with the default rate limit.
func NewClient() *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		submissionsURL: secSubmissionsURL,
		archiveURL:     secArchiveURL,
		tickersURL:     secTickersURL,
	}
}

// submissions mirrors the EDGAR submissions API response. Filing
// attributes arrive as parallel arrays.
type submissions struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// LookupCIK resolves a ticker symbol to a zero-padded 10-digit CIK using
// the SEC company_tickers.json mapping.
func (c *Client) LookupCIK(ctx context.Context, ticker string) (string, error) {
	body, err := c.get(ctx, c.tickersURL, "lookup ticker")
	if err != nil {
		return "", err
	}

	var mapping map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return "", &models.RetrievalError{Kind: models.RetrievalTransient, Op: "lookup ticker", Err: err}
	}

	ticker = strings.ToUpper(ticker)
	for _, entry := range mapping {
		if entry.Ticker == ticker {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", &models.RetrievalError{
		Kind: models.RetrievalNotFound,
		Op:   fmt.Sprintf("ticker %s not in SEC database", ticker),
	}
}

// FetchRawFiling downloads the 10-K whose report period falls in
// fiscalYear. The CIK may be unpadded; it is normalized to 10 digits.
func (c *Client) FetchRawFiling(ctx context.Context, ticker, cik string, fiscalYear int) (*models.RawFiling, error) {
	cik = fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))

	body, err := c.get(ctx, fmt.Sprintf(c.submissionsURL, cik), "fetch submissions")
	if err != nil {
		return nil, err
	}

	var subs submissions
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalTransient, Op: "fetch submissions", Err: err}
	}

	recent := subs.Filings.Recent
	for i := range recent.AccessionNumber {
		if recent.Form[i] != "10-K" {
			continue
		}
		reportDate, err := time.Parse("2006-01-02", recent.ReportDate[i])
		if err != nil || reportDate.Year() != fiscalYear {
			continue
		}

		filingDate, _ := time.Parse("2006-01-02", recent.FilingDate[i])
		accession := recent.AccessionNumber[i]
		url := fmt.Sprintf(c.archiveURL,
			strings.TrimLeft(cik, "0"),
			strings.ReplaceAll(accession, "-", ""),
			recent.PrimaryDocument[i])

		content, err := c.get(ctx, url, "download filing")
		if err != nil {
			return nil, err
		}

		return &models.RawFiling{
			Ticker:          ticker,
			CIK:             cik,
			FiscalYear:      fiscalYear,
			FilingDate:      filingDate,
			AccessionNumber: accession,
			SourceURL:       url,
			Content:         content,
		}, nil
	}

	return nil, &models.RetrievalError{
		Kind: models.RetrievalNotFound,
		Op:   fmt.Sprintf("no 10-K for CIK %s fiscal year %d", cik, fiscalYear),
	}
}

// get performs one rate-limited request and classifies failures.
func (c *Client) get(ctx context.Context, url, op string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalTransient, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalTransient, Op: op, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, &models.RetrievalError{Kind: models.RetrievalNotFound, Op: op,
			Err: fmt.Errorf("SEC returned 404 for %s", url)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &models.RetrievalError{Kind: models.RetrievalRateLimited, Op: op,
			Err: fmt.Errorf("SEC returned 429 for %s", url)}
	default:
		return nil, &models.RetrievalError{Kind: models.RetrievalTransient, Op: op,
			Err: fmt.Errorf("SEC returned status %d for %s", resp.StatusCode, url)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalTransient, Op: op, Err: err}
	}
	return body, nil
}
