// Package core defines the route table and the component contract shared by
// the application instance, the router plugin and the pages.
package core
