package util

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/remotecollab/api/domain"
)

type Result struct {
	Ok     bool         `json:"ok"`
	Err    *string      `json:"error,omitempty"`
	Fields interface{}  `json:"fields,omitempty"`
	Result *interface{} `json:"result,omitempty"`
}

func write(w http.ResponseWriter, statusCode int, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, http.StatusText(http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func WriteOK(w http.ResponseWriter) {
	write(w, http.StatusOK, &Result{Ok: true})
}

func WriteJson(w http.ResponseWriter, res interface{}) {
	WriteJsonStatus(w, http.StatusOK, res)
}

// WriteCreated writes res with a 201.
func WriteCreated(w http.ResponseWriter, res interface{}) {
	WriteJsonStatus(w, http.StatusCreated, res)
}

func WriteJsonStatus(w http.ResponseWriter, statusCode int, res interface{}) {
	write(w, statusCode, &Result{Ok: true, Result: &res})
}

func WriteError(w http.ResponseWriter, statusCode int, errorMessage string) {
	write(w, statusCode, &Result{Ok: false, Err: &errorMessage})
}

// WriteValidationError writes a 400 with per-field detail.
func WriteValidationError(w http.ResponseWriter, v *domain.ValidationError) {
	msg := v.Error()
	write(w, http.StatusBadRequest, &Result{Ok: false, Err: &msg, Fields: v.Fields})
}

func WriteStatus(w http.ResponseWriter, statusCode int) {
	WriteError(w, statusCode, http.StatusText(statusCode))
}

func WriteUnauthorized(w http.ResponseWriter) {
	WriteStatus(w, http.StatusUnauthorized)
}

func WriteInternalServerError(w http.ResponseWriter) {
	WriteStatus(w, http.StatusInternalServerError)
}

// ReadJson decodes the request body into dst, capping the body at 1 MiB and
// rejecting unknown fields.
func ReadJson(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	io.Copy(io.Discard, r.Body)
	return nil
}

func GetUrlQueryParam(r *http.Request, key string) string {
	keys, ok := r.URL.Query()[key]

	if !ok || len(keys[0]) < 1 {
		return ""
	}

	return keys[0]
}
