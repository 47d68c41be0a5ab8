// Package hcl_adapter loads a themegrid.hcl pipeline file into config.Model.
package hcl_adapter
