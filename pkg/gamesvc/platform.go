package gamesvc

import (
	"fmt"
	"sort"
	"strings"
)

// Platform is the console or PC family a cloud game targets.
type Platform string

const (
	PlatformXboxOne Platform = "XboxOne"
	PlatformXbox360 Platform = "Xbox360"
	PlatformPC      Platform = "PC"
)

// The tables below are never written after package initialization.
var (
	platformResourceTypes = map[Platform]string{
		PlatformXboxOne: "xboxlivecompute",
		PlatformXbox360: "xboxlivecomputethreesixty",
		PlatformPC:      "gameservicescomputepc",
	}

	resourceTypePlatforms = func() map[string]Platform {
		reverse := make(map[string]Platform, len(platformResourceTypes))
		for platform, resourceType := range platformResourceTypes {
			reverse[resourceType] = platform
		}

		return reverse
	}()
)

// ResourceType returns the management API resource type for p.
func (p Platform) ResourceType() (string, error) {
	resourceType, ok := platformResourceTypes[p]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}

	return resourceType, nil
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

// PlatformForResourceType maps a resource type back to its platform. The
// comparison is case-insensitive.
func PlatformForResourceType(resourceType string) (Platform, error) {
	platform, ok := resourceTypePlatforms[strings.ToLower(resourceType)]
	if !ok {
		return "", fmt.Errorf("%w: resource type %q", ErrUnknownPlatform, resourceType)
	}

	return platform, nil
}

// ParsePlatform accepts a platform name in any case.
func ParsePlatform(name string) (Platform, error) {
	for platform := range platformResourceTypes {
		if strings.EqualFold(string(platform), name) {
			return platform, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
}

// CloudGameResourceTypes lists every resource type that represents a cloud game.
func CloudGameResourceTypes() []string {
	types := make([]string, 0, len(platformResourceTypes))
	for _, resourceType := range platformResourceTypes {
		types = append(types, resourceType)
	}

	sort.Strings(types)

	return types
}
