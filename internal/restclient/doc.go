// Package restclient is the HTTP client for the product backend.
//
// It implements the remote product store consumed by the refresh
// coordinator (list, create, update and delete products) as well as the
// order endpoints used by the seeder. Backend error bodies of the form
// {timestamp, status, error, message} are decoded into *catalog.APIError.
package restclient
