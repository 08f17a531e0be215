package keyserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sealhq/core/internal/cert"
	"github.com/sealhq/core/pkg/elgamal"
)

// NewMux builds the HTTP surface: POST /v1/fetch_key and GET
// /v1/service. Headers Request-Id, Client-Sdk-Version, Client-Sdk-Type,
// and Client-Target-Api-Version are read and logged only, never
// affecting request handling.
func NewMux(s *Server, logger RequestLogger) *http.ServeMux {
	if logger == nil {
		logger = noopRequestLogger{}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/fetch_key", handleFetchKey(s, logger))
	mux.HandleFunc("GET /v1/service", handleService(s))
	return mux
}

// RequestLogger receives the client-identifying headers the spec says
// are logged only.
type RequestLogger interface {
	LogRequest(requestID, sdkVersion, sdkType, targetAPIVersion string)
}

type noopRequestLogger struct{}

func (noopRequestLogger) LogRequest(string, string, string, string) {}

type certificateJSON struct {
	User           string `json:"user"`
	UserPublicKey  string `json:"user_public_key"`
	SessionVK      string `json:"session_vk"`
	CreationTimeMs uint64 `json:"creation_time_ms"`
	TTLMin         uint16 `json:"ttl_min"`
	Scheme         string `json:"scheme"`
	Signature      string `json:"signature"`
}

type fetchKeyRequestJSON struct {
	PTBBase64          string          `json:"ptb_b64"`
	EncKey             string          `json:"enc_key"`
	EncVerificationKey string          `json:"enc_verification_key"`
	RequestSignature   string          `json:"request_signature"`
	Certificate        certificateJSON `json:"certificate"`
}

type decryptionKeyJSON struct {
	ID           string `json:"id"`
	EncryptedKey string `json:"encrypted_key"`
}

type fetchKeyResponseJSON struct {
	DecryptionKeys []decryptionKeyJSON `json:"decryption_keys"`
}

type serviceResponseJSON struct {
	ServiceID string `json:"service_id"`
	POP       string `json:"pop"`
}

func schemeFromString(s string) (cert.SchemeKind, error) {
	switch s {
	case "ed25519":
		return cert.SchemeEd25519, nil
	case "secp256k1":
		return cert.SchemeSecp256k1, nil
	case "secp256r1":
		return cert.SchemeSecp256r1, nil
	default:
		return 0, ErrUnknownScheme
	}
}

func handleFetchKey(s *Server, logger RequestLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.LogRequest(
			r.Header.Get("Request-Id"),
			r.Header.Get("Client-Sdk-Version"),
			r.Header.Get("Client-Sdk-Type"),
			r.Header.Get("Client-Target-Api-Version"),
		)

		var body fetchKeyRequestJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, NewError(KindInvalidPTB, "malformed request body"))
			return
		}

		req, err := decodeFetchKeyRequest(body)
		if err != nil {
			writeError(w, NewError(KindInvalidCertificate, "malformed request fields"))
			return
		}

		resp, err := s.FetchKey(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		out := fetchKeyResponseJSON{DecryptionKeys: make([]decryptionKeyJSON, len(resp.DecryptionKeys))}
		for i, k := range resp.DecryptionKeys {
			out.DecryptionKeys[i] = decryptionKeyJSON{
				ID:           base64.StdEncoding.EncodeToString(k.ID),
				EncryptedKey: base64.StdEncoding.EncodeToString(elgamal.MarshalEncryptionG1(k.EncryptedKey)),
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleService(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, pop := s.ServiceInfo()
		popBytes := pop.Bytes()
		writeJSON(w, http.StatusOK, serviceResponseJSON{
			ServiceID: base64.StdEncoding.EncodeToString(id[:]),
			POP:       base64.StdEncoding.EncodeToString(popBytes[:]),
		})
	}
}

func decodeFetchKeyRequest(body fetchKeyRequestJSON) (FetchKeyRequest, error) {
	encKey, err := base64.StdEncoding.DecodeString(body.EncKey)
	if err != nil {
		return FetchKeyRequest{}, err
	}
	encVK, err := base64.StdEncoding.DecodeString(body.EncVerificationKey)
	if err != nil {
		return FetchKeyRequest{}, err
	}
	reqSig, err := base64.StdEncoding.DecodeString(body.RequestSignature)
	if err != nil {
		return FetchKeyRequest{}, err
	}

	userBytes, err := base64.StdEncoding.DecodeString(body.Certificate.User)
	if err != nil || len(userBytes) != 32 {
		return FetchKeyRequest{}, ErrMalformedCertificate
	}
	var user cert.Address
	copy(user[:], userBytes)

	userPub, err := base64.StdEncoding.DecodeString(body.Certificate.UserPublicKey)
	if err != nil {
		return FetchKeyRequest{}, err
	}
	sessionVK, err := base64.StdEncoding.DecodeString(body.Certificate.SessionVK)
	if err != nil {
		return FetchKeyRequest{}, err
	}
	sig, err := base64.StdEncoding.DecodeString(body.Certificate.Signature)
	if err != nil {
		return FetchKeyRequest{}, err
	}
	scheme, err := schemeFromString(body.Certificate.Scheme)
	if err != nil {
		return FetchKeyRequest{}, err
	}

	return FetchKeyRequest{
		PTBBase64:          body.PTBBase64,
		EncKey:             encKey,
		EncVerificationKey: encVK,
		RequestSignature:   reqSig,
		Certificate: cert.Certificate{
			User:           user,
			UserPublicKey:  userPub,
			SessionVK:      sessionVK,
			CreationTimeMs: body.Certificate.CreationTimeMs,
			TTLMin:         body.Certificate.TTLMin,
			Scheme:         scheme,
			Signature:      sig,
		},
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	if kerr, ok := err.(*Error); ok {
		writeJSON(w, kerr.K.HTTPStatus(), errorBody{Message: kerr.Message})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "internal error"})
}
