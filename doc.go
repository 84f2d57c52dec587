/*Package dwiml is a research framework for propagating diffusion-MRI
streamlines with learned direction models.

The numeric core lives in two packages: interp samples rank-3/4 MRI
volumes at arbitrary sub-voxel positions with a batched trilinear
kernel, and tracking drives thousands of streamlines in lockstep,
calling the interpolation engine once per step for the whole active
batch and retiring each streamline as it hits a stopping criterion.
volume holds the grid/mask data model and the data-source lifecycle
used by worker pools, model the direction-prediction interface, and
main/ the dwiml_track binary.
*/
package dwiml
