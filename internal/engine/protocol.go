package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/models"
)

// Command types
const (
	CmdGetState         = "GET_STATE"
	CmdAddSkill         = "ADD_SKILL"
	CmdCheckSkill       = "CHECK_SKILL"
	CmdUpdateSkill      = "UPDATE_SKILL"
	CmdDeleteSkill      = "DELETE_SKILL"
	CmdSetName          = "SET_NAME"
	CmdResetAccount     = "RESET_ACCOUNT"
	CmdStartTimer       = "START_TIMER"
	CmdPauseTimer       = "PAUSE_TIMER"
	CmdResumeTimer      = "RESUME_TIMER"
	CmdFinishTimerEarly = "FINISH_TIMER_EARLY"
	CmdCancelTimer      = "CANCEL_TIMER"
	CmdStopTimer        = "STOP_TIMER"
	CmdGetTimerStatus   = "GET_TIMER_STATUS"
)

// Request is one command message.
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewRequest encodes payload into a request. A nil payload is omitted.
func NewRequest(cmdType string, payload any) (Request, error) {
	req := Request{Type: cmdType}
	if payload == nil {
		return req, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("encode %s payload: %w", cmdType, err)
	}
	req.Payload = raw
	return req, nil
}

// Response is the reply to a Request. On failure Error holds the message
// without its code prefix.
type Response struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

// Success is the generic {success:true} result.
type Success struct {
	Success bool `json:"success"`
}

type skillRef struct {
	SkillID string `json:"skillId"`
}

type updatePayload struct {
	SkillID string             `json:"skillId"`
	Patch   *models.SkillPatch `json:"patch"`
}

type namePayload struct {
	Name *string `json:"name"`
}

type startPayload struct {
	SkillID           string `json:"skillId"`
	DurationInSeconds *int   `json:"durationInSeconds"`
}

type PausedResult struct {
	Success          bool `json:"success"`
	RemainingSeconds int  `json:"remainingSeconds"`
}

type ResumedResult struct {
	Success bool  `json:"success"`
	EndTime int64 `json:"endTime"`
}

type NameResult struct {
	Name string `json:"name"`
}

// Caller runs a command and decodes its result into out. A nil out discards
// the result.
type Caller interface {
	Call(ctx context.Context, cmdType string, payload, out any) error
}

// Call is the typed in-process counterpart of Dispatch.
func (p *Processor) Call(ctx context.Context, cmdType string, payload, out any) error {
	req, err := NewRequest(cmdType, payload)
	if err != nil {
		return perrors.Wrap(perrors.CodeValidation, err, "invalid payload")
	}
	result, err := p.run(ctx, req)
	if err != nil {
		return err
	}
	return DecodeResult(result, out)
}

// DecodeResult copies result into out through its JSON form so in-process
// and remote callers see identical values.
func DecodeResult(result, out any) error {
	if out == nil {
		return nil
	}
	raw, ok := result.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(result)
		if err != nil {
			return perrors.Wrap(perrors.CodeInternal, err, "encode result")
		}
		raw = b
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, "decode result")
	}
	return nil
}

// Dispatch runs req and converts every failure into an error response.
func (p *Processor) Dispatch(ctx context.Context, req Request) Response {
	result, err := p.run(ctx, req)
	if err != nil {
		return ErrorResponse(req.Type, err)
	}
	return Response{OK: true, Result: result}
}

// ErrorResponse splits err into the protocol's code and message.
func ErrorResponse(cmdType string, err error) Response {
	code, msg := perrors.Split(err)
	if perrors.Guidance(err) {
		logger.Debug("Command rejected", "type", cmdType, "code", code, "error", msg)
	} else {
		logger.Warn("Command failed", "type", cmdType, "code", code, "error", msg)
	}
	return Response{OK: false, Error: msg, Code: string(code)}
}

func (p *Processor) run(ctx context.Context, req Request) (any, error) {
	switch req.Type {
	case CmdGetState:
		return p.GetState(ctx)

	case CmdAddSkill:
		var in NewSkill
		if err := decode(req, &in); err != nil {
			return nil, err
		}
		return p.AddSkill(ctx, in)

	case CmdCheckSkill:
		id, err := skillID(req)
		if err != nil {
			return nil, err
		}
		return p.CheckSkill(ctx, id)

	case CmdUpdateSkill:
		var in updatePayload
		if err := decode(req, &in); err != nil {
			return nil, err
		}
		if in.SkillID == "" || in.Patch == nil {
			return nil, perrors.Validation("skillId and patch are required")
		}
		return p.UpdateSkill(ctx, in.SkillID, *in.Patch)

	case CmdDeleteSkill:
		id, err := skillID(req)
		if err != nil {
			return nil, err
		}
		if err := p.DeleteSkill(ctx, id); err != nil {
			return nil, err
		}
		return Success{Success: true}, nil

	case CmdSetName:
		var in namePayload
		if err := decode(req, &in); err != nil {
			return nil, err
		}
		if in.Name == nil {
			return nil, perrors.Validation("name is required")
		}
		name, err := p.SetName(ctx, *in.Name)
		if err != nil {
			return nil, err
		}
		return NameResult{Name: name}, nil

	case CmdResetAccount:
		if err := p.ResetAccount(ctx); err != nil {
			return nil, err
		}
		return Success{Success: true}, nil

	case CmdStartTimer:
		var in startPayload
		if err := decode(req, &in); err != nil {
			return nil, err
		}
		if in.SkillID == "" || in.DurationInSeconds == nil {
			return nil, perrors.Validation("skillId and durationInSeconds are required")
		}
		return p.StartTimer(ctx, in.SkillID, *in.DurationInSeconds)

	case CmdPauseTimer:
		id, err := skillID(req)
		if err != nil {
			return nil, err
		}
		remaining, err := p.PauseTimer(ctx, id)
		if err != nil {
			return nil, err
		}
		return PausedResult{Success: true, RemainingSeconds: remaining}, nil

	case CmdResumeTimer:
		id, err := skillID(req)
		if err != nil {
			return nil, err
		}
		endTime, err := p.ResumeTimer(ctx, id)
		if err != nil {
			return nil, err
		}
		return ResumedResult{Success: true, EndTime: endTime}, nil

	case CmdFinishTimerEarly, CmdCancelTimer, CmdStopTimer:
		id, err := skillID(req)
		if err != nil {
			return nil, err
		}
		switch req.Type {
		case CmdFinishTimerEarly:
			err = p.FinishTimerEarly(ctx, id)
		case CmdCancelTimer:
			err = p.CancelTimer(ctx, id)
		default:
			err = p.StopTimer(ctx, id)
		}
		if err != nil {
			return nil, err
		}
		return Success{Success: true}, nil

	case CmdGetTimerStatus:
		return p.TimerStatus(ctx)

	case "":
		return nil, perrors.New(perrors.CodeInternal, "Invalid message format")

	default:
		return nil, perrors.Newf(perrors.CodeInternal, "Unknown message type: %s", req.Type)
	}
}

// decode unmarshals the request payload into v. A missing payload is a
// validation failure.
func decode(req Request, v any) error {
	trimmed := bytes.TrimSpace(req.Payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return perrors.Validation("Payload is required")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return perrors.Validation("invalid %s payload: %v", req.Type, err)
	}
	return nil
}

func skillID(req Request) (string, error) {
	var in skillRef
	if err := decode(req, &in); err != nil {
		return "", err
	}
	if in.SkillID == "" {
		return "", perrors.Validation("Skill ID is required")
	}
	return in.SkillID, nil
}
