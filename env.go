package main

import "os"

const (
	scriptName = "letsencrypt-auto"

	defaultJSONURL     = "https://pypi.python.org/pypi/letsencrypt/json"
	defaultDirTemplate = "https://raw.githubusercontent.com/letsencrypt/letsencrypt/v%s/letsencrypt-auto"
)

// defaultPublicKey is the production release signing key; LE_AUTO_PUBLIC_KEY
// replaces it for testing.
const defaultPublicKey = `-----BEGIN PUBLIC KEY-----
MIICIjANBgkqhkiG9w0BAQEFAAOCAg8AMIICCgKCAgEAnwHkSuCSy3gIHawaCiIe
4ilJ5kfEmSoiu50uiimBhTESq1JG2gVqXVXFxxVgobGhahSF+/iRVp3imrTtGp1B
2heoHbELnPTTZ8E36WHKf4gkLEo0y0XgOP3oBJ9IM5q8J68x0U3Q3c+kTxd/sgww
s5NVwpjw4aAZhgDPe5u+rvthUYOD1whYUANgYvooCpV4httNv5wuDjo7SG2V797T
QTE8aG3AOhWzdsLm6E6Tl2o/dR6XKJi/RMiXIk53SzArimtAJXe/1GyADe1AgIGE
33Ja3hU3uu9lvnnkowy1VI0qvAav/mu/APahcWVYkBAvSVAhH3zGNAGZUnP2zfcP
rH7OPw/WrxLVGlX4trLnvQr1wzX7aiM2jdikcMiaExrP0JfQXPu00y3c+hjOC5S0
+E5P+e+8pqz5iC5mmvEqy2aQJ6pV7dSpYX3mcDs8pCYaVXXtCPXS1noWirCcqCMK
EHGGdJCTXXLHaWUaGQ9Gx1An1gU7Ljkkji2Al65ZwYhkFowsLfuniYKuAywRrCNu
q958HnzFpZiQZAqZYtOHaiQiaHPs/36ZN0HuOEy0zM9FEHbp4V/DEn4pNCfAmRY5
3v+3nIBhgiLdlM7cV9559aDNeutF25n1Uz2kvuSVSS94qTEmlteCPZGBQb9Rr2wn
I2OU8tPRzqKdQ6AwS9wvqscCAwEAAQ==
-----END PUBLIC KEY-----`

// envConfig is the resolved environment interface of the updater. Reading it
// once up front, instead of consulting os.Getenv at each call site, keeps the
// rest of the program deterministic and testable.
type envConfig struct {
	jsonURL      string
	dirTemplate  string
	dataHome     string
	caBundle     string
	publicKeyPEM string
	minisignKey  string
	ed25519Key   string
}

func envFromProcess() envConfig {
	return envConfig{
		jsonURL:      envOr("LE_AUTO_JSON_URL", defaultJSONURL),
		dirTemplate:  envOr("LE_AUTO_DIR_TEMPLATE", defaultDirTemplate),
		dataHome:     os.Getenv("XDG_DATA_HOME"),
		caBundle:     os.Getenv("LE_AUTO_CA_BUNDLE"),
		publicKeyPEM: envOr("LE_AUTO_PUBLIC_KEY", defaultPublicKey),
		minisignKey:  os.Getenv("LE_AUTO_MINISIGN_KEY"),
		ed25519Key:   os.Getenv("LE_AUTO_ED25519_KEY"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
