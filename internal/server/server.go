// Package server exposes a directory of monster files over a read-only
// HTTP API.
package server

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/ai"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/batch"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/combattext"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/fftext"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/logger"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/monster"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/stat"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/version"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

// HeaderRequestID carries the per-request id on responses.
const HeaderRequestID = "X-Request-Id"

// Server serves the monster files found in one directory.
type Server struct {
	dir    string
	tables *reftable.Tables
	log    logger.Logger
}

// New returns a Server reading from dir.
func New(dir string, tables *reftable.Tables, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{dir: dir, tables: tables, log: log}
}

// Summary is one entry of the monster list.
type Summary struct {
	Label string `json:"label"`
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Size  uint32 `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
}

// Register adds the routes to e.
func (s *Server) Register(e *echo.Echo) {
	e.Use(s.requestID)
	e.GET("/v1/version", s.handleVersion)
	e.GET("/v1/monsters", s.handleList)
	e.GET("/v1/monsters/:label", s.handleGet)
	e.GET("/v1/monsters/:label/ai", s.handleListing)
	e.GET("/v1/monsters/:label/fields/:name", s.handleField)
}

func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		req := c.Request()
		id := req.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(HeaderRequestID, id)
		log := logger.WithRun(s.log, id)
		c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))
		return next(c)
	}
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, version.Resolve())
}

func (s *Server) handleList(c *echo.Context) error {
	paths, err := batch.Discover(s.dir)
	if err != nil {
		return s.writeError(c, err)
	}
	out := make([]Summary, 0, len(paths))
	for _, path := range paths {
		sum := Summary{Label: filepath.Base(path), Index: -1}
		r, err := monster.Open(path, s.tables, monster.DecodeOptions{})
		if err != nil {
			sum.Error = err.Error()
			if idx, ierr := monster.FileIndex(sum.Label); ierr == nil {
				sum.Index = idx
			}
		} else {
			sum.Index = r.Index
			sum.Name = r.Info.Name
			sum.Size = r.Header.FileSize
		}
		out = append(out, sum)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGet(c *echo.Context) error {
	withAI, _ := strconv.ParseBool(c.QueryParam("ai"))
	names, _ := strconv.ParseBool(c.QueryParam("names"))
	r, err := s.open(c, withAI)
	if err != nil {
		return s.writeError(c, err)
	}
	if names {
		return c.JSON(http.StatusOK, monster.Resolved{Record: r, Names: r.Names()})
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) handleListing(c *echo.Context) error {
	r, err := s.open(c, true)
	if err != nil {
		return s.writeError(c, err)
	}
	lines, err := ai.Listing(r.AI, s.tables, r.Texts)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (s *Server) handleField(c *echo.Context) error {
	r, err := s.open(c, false)
	if err != nil {
		return s.writeError(c, err)
	}
	name := c.Param("name")
	v, err := r.Field(name)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{name: v})
}

func (s *Server) open(c *echo.Context, withAI bool) (*monster.Record, error) {
	label := c.Param("label")
	if label != filepath.Base(label) {
		return nil, monster.ErrBadLabel
	}
	if _, err := monster.FileIndex(label); err != nil {
		return nil, err
	}
	r, err := monster.Open(filepath.Join(s.dir, label), s.tables, monster.DecodeOptions{AI: withAI})
	if err != nil {
		logger.FromContext(c.Request().Context()).Warn("decode failed", "file", label, "error", err)
		return nil, err
	}
	return r, nil
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (s *Server) writeError(c *echo.Context, err error) error {
	status, typ := classify(err)
	var body ErrorBody
	body.Error.Message = err.Error()
	body.Error.Type = typ
	return c.JSON(status, body)
}

func classify(err error) (int, string) {
	var fe *dat.FormatError
	switch {
	case errors.Is(err, monster.ErrBadLabel):
		return http.StatusBadRequest, "invalid_label"
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, stat.ErrUnknownField):
		return http.StatusNotFound, "unknown_field"
	case errors.As(err, &fe), errors.Is(err, ai.ErrUnknownOpcode), errors.Is(err, ai.ErrMalformedProgram):
		return http.StatusUnprocessableEntity, "malformed_file"
	case errors.Is(err, fftext.ErrUnencodable), errors.Is(err, combattext.ErrTableOverflow):
		return http.StatusUnprocessableEntity, "unencodable_text"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
