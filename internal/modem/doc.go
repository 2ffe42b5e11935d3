// Package modem drives a Huawei E337-family USB modem's LAN-side HTTP
// management interface to trigger a mobile-link reconnect: session and
// verification token acquisition, RSA public-key retrieval for payload
// encryption, and the reboot control request itself.
package modem
