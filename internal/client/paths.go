package client

import (
	"net/url"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// Management API paths, relative to the subscription.
const (
	servicesPath      = "/services"
	cloudServicePath  = "/cloudservices/" + constants.DefaultServiceName
	resourcesPath     = cloudServicePath + "/resources/" + constants.ResourceProviderNamespace
	passthroughPath   = resourcesPath + "/~"
	propertiesPath    = "/resourceproviders/" + constants.ResourceProviderNamespace + "/Properties"
	containerTypePath = resourcesPath + "/" + constants.ContainerResourceType + "/"
	containerPath     = containerTypePath + constants.ContainerResourceName

	// containerPassthroughPath prefixes subscription level resources such as
	// assets, certificates and game mode schemas.
	containerPassthroughPath = passthroughPath + "/" + constants.ContainerResourceType + "/" + constants.ContainerResourceName
)

// joinPath escapes each segment and joins them onto base.
func joinPath(base string, segments ...string) string {
	var builder strings.Builder

	builder.WriteString(base)

	for _, segment := range segments {
		builder.WriteByte('/')
		builder.WriteString(url.PathEscape(segment))
	}

	return builder.String()
}

// cloudGamePath returns the passthrough path of a cloud game, followed by
// segments.
func cloudGamePath(name string, platform gamesvc.Platform, segments ...string) (string, error) {
	resourceType, err := platformType(platform)
	if err != nil {
		return "", err
	}

	return joinPath(passthroughPath, append([]string{resourceType, name}, segments...)...), nil
}

// cloudGameResourcePath returns the RDFE path of the resource envelope of a
// cloud game.
func cloudGameResourcePath(name string, platform gamesvc.Platform) (string, error) {
	resourceType, err := platformType(platform)
	if err != nil {
		return "", err
	}

	return joinPath(resourcesPath, resourceType, name), nil
}

func platformType(platform gamesvc.Platform) (string, error) {
	resourceType, err := platform.ResourceType()
	if err != nil {
		return "", gamesvc.NewError(gamesvc.ErrorKindValidation, "resolving platform", err)
	}

	return resourceType, nil
}

// cloudGameIDQuery filters a subscription listing by cloud game, or returns
// nil for all entries.
func cloudGameIDQuery(cloudGameID string) url.Values {
	if cloudGameID == "" {
		return nil
	}

	return url.Values{"gsiSetId": []string{cloudGameID}}
}
