package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/phone"
)

// SMSClient sends SMS through a Twilio-compatible REST API. A nil client is a
// disabled channel; Send on it rejects immediately instead of panicking.
type SMSClient struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
	log        *logger.Logger
}

type smsAPIResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewSMSClient creates the SMS gateway, or nil when no credentials are
// configured.
func NewSMSClient(cfg config.SMSConfig, log *logger.Logger) *SMSClient {
	if !cfg.IsSMSEnabled() {
		return nil
	}

	return &SMSClient{
		baseURL:    strings.TrimRight(cfg.GetSMSAPIBaseURL(), "/"),
		accountSID: cfg.GetSMSAccountSID(),
		authToken:  cfg.GetSMSAuthToken(),
		from:       cfg.GetSMSFromNumber(),
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Channel returns the channel this gateway serves.
func (c *SMSClient) Channel() domain.Channel {
	return domain.ChannelSMS
}

// Send posts the message to the provider's Messages endpoint. The provider's
// message SID comes back in the result and is later matched by status
// callbacks and inbound replies.
func (c *SMSClient) Send(ctx context.Context, msg Message) (SendResult, error) {
	if c == nil {
		return Rejected("sms channel is not configured"), nil
	}

	from := msg.From
	if from == "" {
		from = c.from
	}

	form := url.Values{}
	form.Set("To", phone.FormatOutbound(msg.To))
	form.Set("From", from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{}, err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{}, fmt.Errorf("read sms response: %w", err)
	}

	var apiResp smsAPIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		apiResp = smsAPIResponse{Message: strings.TrimSpace(string(data))}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		detail := apiResp.Message
		if detail == "" {
			detail = fmt.Sprintf("provider returned %d", resp.StatusCode)
		}
		c.log.Warn("sms rejected by provider",
			"to", phone.MatchKey(msg.To),
			"code", apiResp.Code,
			"detail", detail,
		)
		return Rejected(detail), nil
	}

	status := domain.NormalizeProviderStatus(apiResp.Status)
	if status == "" {
		status = domain.StatusSent
	}

	c.log.Info("sms accepted by provider", "provider_message_id", apiResp.SID)
	return Accepted(apiResp.SID, status), nil
}

// Compile-time check that SMSClient implements Gateway.
var _ Gateway = (*SMSClient)(nil)
