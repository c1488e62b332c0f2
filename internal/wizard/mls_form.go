package wizard

import (
	"context"
	"errors"
	"regexp"

	"greendrake/blast/internal/asyncstate"
	"greendrake/blast/internal/client"
	"greendrake/blast/internal/models"
)

const (
	MsgSelectMLS  = "Please select your MLS"
	MsgEnterAgent = "Please enter your agent ID"
	MsgEnterCode  = "Please enter the code"
)

var codePattern = regexp.MustCompile(`^[0-9]{5}$`)

// MLSVerificationInput is what the user enters on the first step.
type MLSVerificationInput struct {
	MLSID   string                    `json:"mlsId" validate:"required"`
	AgentID string                    `json:"agentId" validate:"required"`
	Method  models.VerificationMethod `json:"method" validate:"required,oneof=email phone"`
	Code    string                    `json:"code"`
}

// MLSVerificationForm verifies the agent's MLS membership, optionally with a
// delivered code.
type MLSVerificationForm struct {
	Input MLSVerificationInput

	Providers   *asyncstate.Query[[]models.MLSProvider]
	verifyAgent *asyncstate.Action[models.VerifyAgentRequest, *models.VerifyAgentResponse]
	sendCode    *asyncstate.Action[models.SendVerificationCodeRequest, *models.SendVerificationCodeResponse]
	verifyCode  *asyncstate.Action[models.VerifyCodeRequest, *models.VerifyCodeResponse]

	codeSent     bool
	codeVerified bool
}

// NewMLSVerificationForm prefills the form from data. The method defaults to phone.
func NewMLSVerificationForm(c *client.Client, data FormData) *MLSVerificationForm {
	f := &MLSVerificationForm{
		Input: MLSVerificationInput{
			MLSID:   data.MLSID,
			AgentID: data.AgentID,
			Method:  data.VerificationMethod,
		},
		Providers:   asyncstate.NewQuery(c.MLS.Providers),
		verifyAgent: asyncstate.NewAction(c.MLS.VerifyAgent),
		sendCode:    asyncstate.NewAction(c.MLS.SendVerificationCode),
		verifyCode:  asyncstate.NewAction(c.MLS.VerifyCode),
	}
	if !f.Input.Method.Valid() {
		f.Input.Method = models.VerificationMethodPhone
	}
	return f
}

// Load fetches the MLS providers.
func (f *MLSVerificationForm) Load(ctx context.Context) asyncstate.State[[]models.MLSProvider] {
	return f.Providers.Refetch(ctx)
}

func (f *MLSVerificationForm) CodeSent() bool { return f.codeSent }

func (f *MLSVerificationForm) CodeVerified() bool { return f.codeVerified }

// SendCode asks the server to deliver a code for the entered agent.
func (f *MLSVerificationForm) SendCode(ctx context.Context) (*models.SendVerificationCodeResponse, error) {
	if f.Input.AgentID == "" {
		return nil, fieldError("agentId", MsgEnterAgent)
	}
	if !f.Input.Method.Valid() {
		return nil, fieldError("method", "Must be one of: email, phone")
	}
	resp, ok := f.sendCode.Execute(ctx, models.SendVerificationCodeRequest{AgentID: f.Input.AgentID, Method: f.Input.Method})
	if !ok {
		return nil, stateError(f.sendCode.State())
	}
	f.codeSent = true
	f.codeVerified = false
	return resp, nil
}

// VerifyCode checks a five digit code with the server.
func (f *MLSVerificationForm) VerifyCode(ctx context.Context, code string) error {
	f.Input.Code = code
	if !codePattern.MatchString(code) {
		return fieldError("code", MsgEnterCode)
	}
	if _, ok := f.verifyCode.Execute(ctx, models.VerifyCodeRequest{AgentID: f.Input.AgentID, Code: code}); !ok {
		return stateError(f.verifyCode.State())
	}
	f.codeVerified = true
	return nil
}

// Submit verifies the agent, and the code when one was sent, and returns the
// step's contribution to the form data.
func (f *MLSVerificationForm) Submit(ctx context.Context) (Patch, error) {
	if err := checkForm(f.Input, map[string]string{
		"mlsId":   MsgSelectMLS,
		"agentId": MsgEnterAgent,
	}); err != nil {
		return nil, err
	}
	if f.codeSent && !f.codeVerified {
		if err := f.VerifyCode(ctx, f.Input.Code); err != nil {
			return nil, err
		}
	}

	resp, ok := f.verifyAgent.Execute(ctx, models.VerifyAgentRequest{MLSID: f.Input.MLSID, AgentID: f.Input.AgentID})
	if !ok {
		return nil, stateError(f.verifyAgent.State())
	}
	if !resp.Success || resp.Agent == nil {
		return nil, errors.New(asyncstate.ErrorMessage(errors.New(resp.Message)))
	}

	return Patch{
		"mlsId":              f.Input.MLSID,
		"agentId":            f.Input.AgentID,
		"agentRecordId":      resp.Agent.ID,
		"agentName":          resp.Agent.Name,
		"agentEmail":         resp.Agent.Email,
		"verificationMethod": f.Input.Method,
		"agentVerified":      true,
	}, nil
}

// Errors returns the latest request failure of any of the form's calls.
func (f *MLSVerificationForm) Errors() []string {
	var out []string
	for _, msg := range []string{f.Providers.State().Err, f.verifyAgent.State().Err, f.sendCode.State().Err, f.verifyCode.State().Err} {
		if msg != "" {
			out = append(out, msg)
		}
	}
	return out
}

func stateError[T any](s asyncstate.State[T]) error {
	return errors.New(asyncstate.ErrorMessage(errors.New(s.Err)))
}
