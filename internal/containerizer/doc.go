// Package containerizer runs MCP servers as containers for the stdio client.
//
// A ContainerRuntime wraps the docker or podman CLI. Both accept the same
// flags, so one implementation serves both and only the binary differs.
//
// # Launching
//
// Command turns a stdio.LaunchSpec into an interactive, auto-removed run:
//
//	docker run --rm -i --name mcpprobe-<uuid> \
//	    -v <mount>:/workspace:rw -e KEY=VALUE <image> [args...]
//
// LaunchSpec.Command[0] is the image and the rest are passed to the
// container. The child's stdin and stdout are the server's JSON-RPC stream.
//
// # Cleanup
//
// Killing the CLI process does not always stop the container it attached to.
// Cleanup force-removes the named container and is run by the stdio client
// after every stop.
//
// # Usage Example
//
//	runtime, err := containerizer.NewContainerRuntime("docker")
//	if err != nil {
//	    return err
//	}
//	if err := runtime.PullImage(ctx, image); err != nil {
//	    return err
//	}
//	client := stdio.NewClient(runtime)
//	err = client.Start(ctx, stdio.LaunchSpec{Command: []string{image}, MountPath: dir})
package containerizer
