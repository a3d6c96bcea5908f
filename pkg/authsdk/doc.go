/*
Package authsdk provides a client SDK and the shared wire types for the clubhouse
authentication service.

# Overview

The service authenticates people with an email and password, optionally followed by a
TOTP second factor, and establishes a cookie-backed session. Every mutating request on
an established session must echo the CSRF token returned at login in the X-CSRF-Token
header. The SDK tracks both for you.

	client, err := authsdk.NewSDKClient("https://auth.example.com")

	res, err := client.Login(ctx, authsdk.LoginRequest{Email: email, Password: password})
	if res.RequiresTOTP {
		res, err = client.LoginTOTP(ctx, authsdk.LoginTOTPRequest{
			ChallengeToken: res.ChallengeToken,
			Code:           code,
		})
	}

	session := client.Session()
	invite, err := session.CreateInvitation(ctx, authsdk.CreateInvitationRequest{
		Email: "new.member@example.com",
		Role:  "member",
	})

A client holds exactly one cookie jar, so use one SDKClient per identity.

# Error Handling

Every non-2xx response is returned as an *APIError carrying the HTTP status, the
machine readable code and a generic message:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeRateLimited {
		time.Sleep(apiErr.RetryAfter)
	}

The predefined errors in this package (ErrInvalidCredentials, ErrCSRFMismatch, ...) are
used by the server to write responses, and compare equal to client-side errors with
errors.Is when the code matches.
*/
package authsdk
