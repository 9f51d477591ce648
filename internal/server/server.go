/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package server exposes the classifier over HTTP.
package server

import (
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/dispatch"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

const maxImageSize = 32 << 20

// Decoder turns an uploaded picture into a bitmap.
type Decoder interface {
	Decode(data []byte) (*tensor.Bitmap, error)
}

type Server struct {
	Bridge    *dispatch.Bridge
	Display   *dispatch.Display
	Decoder   Decoder
	StaticDir string
	Verbose   int
}

// Response is the JSON body of /runmodel.
type Response struct {
	ID    uint64  `json:"id"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
	Error string  `json:"error,omitempty"`
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.Verbose > 0 {
		r.Use(gin.Logger())
	}
	if s.StaticDir != "" {
		if _, err := os.Stat(s.StaticDir); err == nil {
			r.Use(static.Serve("/", static.LocalFile(s.StaticDir, true)))
		} else {
			log.Printf("no static content in %s", s.StaticDir)
		}
	}
	r.POST("/runmodel", s.RunModel)
	r.GET("/status", s.Status)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return r
}

func queryFlag(c *gin.Context, name string) (bool, error) {
	v := c.Query(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func parseFlags(c *gin.Context) (backend.Flags, error) {
	var f backend.Flags
	var err error
	if f.Accelerator, err = queryFlag(c, "accelerator"); err != nil {
		return f, err
	}
	if f.GPU, err = queryFlag(c, "gpu"); err != nil {
		return f, err
	}
	if f.Delegate, err = queryFlag(c, "delegate"); err != nil {
		return f, err
	}
	return f, nil
}

// RunModel classifies the image posted as request body.
func (s *Server) RunModel(c *gin.Context) {
	flags, err := parseFlags(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)
	data, err := io.ReadAll(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if s.Verbose > 0 {
		log.Println("Header:", c.Request.Header, "Body Size: ", len(data))
	}

	img, err := s.Decoder.Decode(data)
	if err != nil {
		log.Printf("decode: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}

	sink, result := dispatch.OneShot()
	if s.Display != nil {
		sink = dispatch.Multi(s.Display, sink)
	}
	req := s.Bridge.Dispatch(img, flags, sink)

	select {
	case msg := <-result:
		rsp := Response{ID: msg.ID, Text: msg.Text, Score: msg.Score}
		status := http.StatusOK
		if msg.Failed() {
			rsp.Error = msg.Kind.String()
			status = http.StatusInternalServerError
		}
		c.JSON(status, rsp)
	case <-c.Request.Context().Done():
		log.Printf("request %d: client gone while %v", req.ID, req.State())
		c.Status(http.StatusServiceUnavailable)
	}
}

// Status returns the text currently shown.
func (s *Server) Status(c *gin.Context) {
	text := ""
	if s.Display != nil {
		text = s.Display.Text()
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}
