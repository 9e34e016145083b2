package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transportSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/util"
	"github.com/go-playground/validator/v10"
)

func (s *Server) handleSignHash(w http.ResponseWriter, r *http.Request) {
	var req SignHashRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	hash, err := util.DecodeHex(req.Hash)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, fmt.Sprintf("hash: %v", err))
		return
	}

	sig, err := s.signer.SignHash(hash, ethSigner.HexKey(req.PrivateKey))
	if err != nil {
		s.writeSignError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, NewSignatureResponse(sig))
}

func (s *Server) handleSignMessage(w http.ResponseWriter, r *http.Request) {
	var req SignMessageRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	message, err := decodeMessage(req.Message, req.Encoding)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, fmt.Sprintf("message: %v", err))
		return
	}

	sig, err := s.signer.SignMessage(message, ethSigner.HexKey(req.PrivateKey))
	if err != nil {
		s.writeSignError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, NewSignatureResponse(sig))
}

func (s *Server) handleSignTypedData(w http.ResponseWriter, r *http.Request) {
	var req SignTypedDataRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	sig, digest, err := s.signer.SignTypedDataWithDigest(req.TypedData, ethSigner.HexKey(req.PrivateKey))
	if err != nil {
		s.writeSignError(w, r, err)
		return
	}

	resp := NewSignatureResponse(sig)
	resp.Digest = &digest
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleSignTransaction(w http.ResponseWriter, r *http.Request) {
	var req SignTransactionRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	signed, err := s.signer.SignTransactionJSON(req.Transaction, ethSigner.HexKey(req.PrivateKey))
	if err != nil {
		s.writeSignError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, NewTransactionResponse(signed))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	resp := &HealthResponse{Status: "ok"}
	if s.responseSigner != nil {
		resp.SignerAddress = s.responseSigner.Address().Hex()
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, CodeNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
}

// decodeRequest enforces POST, the body limit, strict JSON decoding and struct
// validation. It writes the error response and returns false on failure.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, CodeRequestTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, fmt.Sprintf("failed to parse request: %v", err))
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			code := CodeInvalidArgument
			if fe.Field() == "privateKey" {
				code = CodeInvalidKey
			}
			s.writeError(w, r, http.StatusBadRequest, code, fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag()))
			return false
		}
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, err.Error())
		return false
	}
	return true
}

func decodeMessage(message string, encoding string) ([]byte, error) {
	switch encoding {
	case MessageEncodingUTF8:
		return []byte(message), nil
	case MessageEncodingHex:
		return util.DecodeHex(message)
	default:
		if strings.HasPrefix(message, "0x") {
			if b, err := util.DecodeHex(message); err == nil {
				return b, nil
			}
		}
		return []byte(message), nil
	}
}

func (s *Server) writeSignError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Sugar().Errorw("Signing failed", "requestId", requestIDFrom(r.Context()), "error", err)
	}
	s.writeError(w, r, status, code, err.Error())
}

func statusForError(err error) (int, string) {
	switch ethSigner.KindOf(err) {
	case ethSigner.ErrInvalidArgument:
		return http.StatusBadRequest, CodeInvalidArgument
	case ethSigner.ErrInvalidKey:
		return http.StatusBadRequest, CodeInvalidKey
	case ethSigner.ErrEncoding:
		return http.StatusUnprocessableEntity, CodeEncodingError
	case ethSigner.ErrSignFailure:
		return http.StatusInternalServerError, CodeSignFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code string, msg string) {
	s.writeJSON(w, r, status, &ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		s.logger.Sugar().Errorw("Failed to encode response", "requestId", requestIDFrom(r.Context()), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if s.responseSigner != nil && status >= 200 && status < 300 {
		msg, err := s.responseSigner.CreateAuthenticatedMessage(buf.Bytes())
		if err != nil {
			s.logger.Sugar().Errorw("Failed to sign response", "requestId", requestIDFrom(r.Context()), "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set(transportSigner.SignatureHeader, util.EncodeHex(msg.Signature))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
