package main

// General API documentation for swaggo. Run `swag init -g cmd/airouter/docs.go` to generate docs.
//
// @title           ai-router API
// @version         1.0
// @description     OpenAI-compatible gateway in front of OpenAI and Triton Inference Server backends.
//
// @license.name   Apache 2.0
// @license.url    https://www.apache.org/licenses/LICENSE-2.0
//
// @BasePath  /
//
// @schemes http
