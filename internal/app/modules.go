package app

import (
	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/registry"
	"github.com/vk/themegrid/modules/command"
	"github.com/vk/themegrid/modules/concat"
	"github.com/vk/themegrid/modules/images"
	"github.com/vk/themegrid/modules/include"
	"github.com/vk/themegrid/modules/minify"
	"github.com/vk/themegrid/modules/rename"
	"github.com/vk/themegrid/modules/sass"
	"github.com/vk/themegrid/modules/sprite"
)

// coreModules is the definitive list of all transform modules compiled
// into the themegrid binary. Command transforms depend on the loaded model.
func coreModules(model *config.Model) []registry.Module {
	return []registry.Module{
		&sass.Module{},
		&minify.Module{},
		&concat.Module{},
		&include.Module{},
		&images.Module{},
		&sprite.Module{},
		&rename.Module{},
		&command.Module{Commands: model.Commands},
	}
}
