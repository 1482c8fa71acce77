// Package stytch is a client-side SDK for the Stytch authentication API.
//
// Construct a ConsumerClient or B2BClient, configure it once with the
// project's public token, and call the product sub-clients. Successful
// authentication responses transparently update the shared session, user,
// member, and organization caches, and subsequent requests authenticate with
// the cached session token automatically.
//
// Outbound requests can be decorated with device-fingerprinting telemetry
// and CAPTCHA tokens depending on the project's anti-abuse configuration;
// both decorations degrade gracefully and never fail a request on their own.
package stytch
