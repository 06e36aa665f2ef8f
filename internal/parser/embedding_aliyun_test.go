package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resume-coach-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewAliyunEmbedderTimeout 配置的请求超时应作用到HTTP客户端
func TestNewAliyunEmbedderTimeout(t *testing.T) {
	e, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{}, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, e.httpClient.Timeout, "配置的超时应作用到HTTP客户端")

	e, err = NewAliyunEmbedder("test-key", config.EmbeddingConfig{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, e.httpClient.Timeout, "非正超时应回退到默认值")
}

// TestNewAliyunEmbedderEmptyKey 空API密钥应拒绝创建
func TestNewAliyunEmbedderEmptyKey(t *testing.T) {
	_, err := NewAliyunEmbedder("", config.EmbeddingConfig{}, 0)
	assert.Error(t, err, "空API密钥应返回错误")
}

// TestEmbedStringsOrdersByIndex 响应乱序时应按index归位
func TestEmbedStringsOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"object": "list",
			"data": [
				{"object": "embedding", "embedding": [0.4, 0.5], "index": 1},
				{"object": "embedding", "embedding": [0.1, 0.2], "index": 0}
			],
			"model": "text-embedding-v3",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`)
	}))
	defer server.Close()

	e, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{BaseURL: server.URL}, 5*time.Second)
	require.NoError(t, err)

	vectors, err := e.EmbedStrings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0.1, 0.2}, vectors[0], "乱序响应应按index归位")
	assert.Equal(t, []float64{0.4, 0.5}, vectors[1])
}

// TestEmbedStringsEmptyInput 空输入直接返回空结果，不触达接口
func TestEmbedStringsEmptyInput(t *testing.T) {
	e, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{BaseURL: "http://127.0.0.1:1"}, time.Second)
	require.NoError(t, err)

	vectors, err := e.EmbedStrings(context.Background(), []string{})
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

// TestEmbedStringsAPIErrorInOKResponse 200响应里携带API错误时应失败
func TestEmbedStringsAPIErrorInOKResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": {"message": "invalid input", "type": "invalid_request_error", "code": "400"}}`)
	}))
	defer server.Close()

	e, err := NewAliyunEmbedder("test-key", config.EmbeddingConfig{BaseURL: server.URL}, 5*time.Second)
	require.NoError(t, err)

	_, err = e.EmbedStrings(context.Background(), []string{"text"})
	require.Error(t, err, "200响应携带API错误时应失败")
	assert.Contains(t, err.Error(), "invalid input")
}
