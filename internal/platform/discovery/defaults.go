// Package discovery centralizes internal service-discovery conventions.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// ServiceStory is the story HTTP/WebSocket service identity.
	ServiceStory = "story"
	// ServiceStoryHealth is the story process gRPC health identity.
	ServiceStoryHealth = "story-health"
)

var grpcPorts = map[string]int{
	ServiceStoryHealth: 8092,
}

var httpPorts = map[string]int{
	ServiceStory: 8080,
}

// DefaultGRPCAddr returns the canonical in-network gRPC address for a service.
func DefaultGRPCAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), grpcPorts)
}

// DefaultHTTPAddr returns the canonical in-network HTTP address for a service.
func DefaultHTTPAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), httpPorts)
}

// OrDefaultGRPCAddr returns value when set, otherwise the service convention.
func OrDefaultGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr(service)
}

// OrDefaultHTTPAddr returns value when set, otherwise the service convention.
func OrDefaultHTTPAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultHTTPAddr(service)
}

// ListenAddr converts an in-network address to the port-only form used when
// binding, so "story:8080" listens on ":8080".
func ListenAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if idx := strings.LastIndex(addr, ":"); idx > 0 {
		return addr[idx:]
	}
	return addr
}

func defaultAddr(service string, ports map[string]int) string {
	port, ok := ports[service]
	if !ok || port <= 0 {
		return ""
	}
	return service + ":" + strconv.Itoa(port)
}
