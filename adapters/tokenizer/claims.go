package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the fixed claim set of an access token. Every field is
// mandatory at mint time; audience is set only when one is configured.
type AccessClaims struct {
	jwt.RegisteredClaims
	Nonce   string `json:"nonce"`
	Purpose string `json:"purpose"`
	Domain  string `json:"domain"`
}
