// Package brand provides the product name shared by build output and templates.
package brand

const AppName = "Send Arcade Alpha"

// PlaygroundTitle is the document title of the playground page.
const PlaygroundTitle = "Send Arcade Alpha Project"
