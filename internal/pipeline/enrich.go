package pipeline

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fency/outreach-pipeline/internal/model"
	"github.com/fency/outreach-pipeline/pkg/pdl"
)

// RunEnrich polls for owners waiting on enrichment until ctx is done.
func (p *Pipeline) RunEnrich(ctx context.Context) error {
	return p.runWorker(ctx, model.StageEnrich, p.cfg.Worker.EnrichPace(), p.EnrichOwner)
}

// EnrichOwner looks the owner up in the people-data API and stores the
// ranked emails. Lookup failures and empty results mark the owner
// failed_enrichment; the returned error is set when the store write fails
// or when ctx is done, in which case nothing is written.
func (p *Pipeline) EnrichOwner(ctx context.Context, o model.Owner) (model.ProcessingStatus, error) {
	log := zap.L().With(zap.String("stage", string(model.StageEnrich)), zap.String("person_key", o.PersonKey))

	ranked, err := p.lookupEmails(ctx, o)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return o.Status, eris.Wrapf(ctxErr, "enrich: lookup for %s", o.PersonKey)
	}
	status := NextAfterEnrichment(ranked, err)

	switch {
	case err != nil:
		log.Warn("enrich: lookup failed", zap.Error(err))
	case len(ranked) == 0:
		log.Info("enrich: no usable emails found")
	default:
		log.Info("enrich: found emails", zap.Int("count", len(ranked)), zap.String("email", ranked[0]))
	}

	if status == model.StatusPendingPostEnrichmentVerification {
		if err := p.deps.Store.UpdateOwnerEnrichment(ctx, o.PersonKey, status, ranked); err != nil {
			return status, eris.Wrapf(err, "enrich: save emails for %s", o.PersonKey)
		}
		return status, nil
	}

	if err := p.deps.Store.UpdateOwnerStatus(ctx, o.PersonKey, status); err != nil {
		return status, eris.Wrapf(err, "enrich: save status for %s", o.PersonKey)
	}
	return status, nil
}

func (p *Pipeline) lookupEmails(ctx context.Context, o model.Owner) ([]string, error) {
	res, err := p.deps.PDL.Enrich(ctx, EnrichParamsFor(o))
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, nil
	}
	return RankEmails(res.Person), nil
}

// EnrichParamsFor builds the lookup from whatever the owner record carries.
func EnrichParamsFor(o model.Owner) pdl.EnrichParams {
	return pdl.EnrichParams{
		FirstName:     o.FirstName,
		LastName:      o.LastName,
		StreetAddress: o.MailStreet,
		Locality:      o.MailCity,
		Region:        o.MailState,
		PostalCode:    o.MailZip,
		Email:         o.OriginalEmail,
		Phone:         phoneParam(o.OriginalPhone),
	}
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s().-]{7,}$`)

// phoneParam pulls the first phone-number-like string out of the stored
// phone JSON. Values that are not JSON are used as they are.
func phoneParam(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	if s, ok := firstPhone(v); ok {
		return s
	}
	return ""
}

func firstPhone(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if phonePattern.MatchString(s) {
			return s, true
		}
	case float64:
		s := jsonNumber(t)
		if phonePattern.MatchString(s) {
			return s, true
		}
	case []any:
		for _, e := range t {
			if s, ok := firstPhone(e); ok {
				return s, true
			}
		}
	case map[string]any:
		for _, key := range []string{"Phone", "phone", "Number", "number", "linktext", "Value", "value"} {
			if e, ok := t[key]; ok {
				if s, ok := firstPhone(e); ok {
					return s, true
				}
			}
		}
	}
	return "", false
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
