package utils

import (
	"context"
	"fmt"
	"regexp"

	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	lookupsv2 "github.com/twilio/twilio-go/rest/lookups/v2"
)

var e164Regex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`) // ITU-T E.164

func IsE164(number string) bool { return e164Regex.MatchString(number) }

// LookupPhoneNumber asks Twilio Lookups V2 whether an E.164 number exists.
// A nil client skips the remote check and accepts any E.164 number.
func LookupPhoneNumber(
	ctx context.Context,
	number string,
	country *string,
	tw *twilio.RestClient,
) (bool, error) {
	if !IsE164(number) {
		return false, nil
	}
	if tw == nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var params *lookupsv2.FetchPhoneNumberParams
	if country != nil && *country != "" {
		params = &lookupsv2.FetchPhoneNumberParams{CountryCode: country}
	}

	resp, err := tw.LookupsV2.FetchPhoneNumber(number, params)
	if err == nil {
		return resp.Valid == nil || *resp.Valid, nil
	}

	if restErr, ok := err.(*twilioclient.TwilioRestError); ok {
		if restErr.Status == 404 {
			return false, nil
		}
		return false, fmt.Errorf("%w: twilio lookup failed: %d %s",
			ErrExternalServiceFailure, restErr.Status, restErr.Error())
	}
	return false, fmt.Errorf("%w: %v", ErrExternalServiceFailure, err)
}
